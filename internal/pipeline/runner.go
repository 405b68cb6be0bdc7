package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/report"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/source"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

var ErrRunInProgress = errors.New("a run is already in progress")

// Summary is the document stored with a completed run.
type Summary struct {
	Feasibility       report.FeasibilitySummary `json:"feasibility"`
	Ranking           report.RankingSummary     `json:"ranking"`
	Diagnostics       []diag.Entry              `json:"diagnostics"`
	AggregationErrors []string                  `json:"aggregation_errors,omitempty"`
}

// Outcome is a finished run with its in-memory result.
type Outcome struct {
	Run     *store.Run
	Result  *Result
	Summary Summary
}

// Runner executes one run at a time: load inputs, execute, persist, announce.
type Runner struct {
	mu      sync.Mutex
	loader  source.Loader
	engine  *Engine
	store   store.Store
	hermes  hermes.Client
	metrics *metrics.Metrics
	topN    int
	logger  *slog.Logger
}

// NewRunner wires a runner. hc and m may be nil.
func NewRunner(loader source.Loader, engine *Engine, st store.Store, hc hermes.Client, m *metrics.Metrics, topN int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		loader:  loader,
		engine:  engine,
		store:   st,
		hermes:  hc,
		metrics: m,
		topN:    topN,
		logger:  logger,
	}
}

// Run performs one complete run. It returns ErrRunInProgress instead of
// waiting when another run holds the runner.
func (r *Runner) Run(ctx context.Context, trigger string) (*Outcome, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	run := &store.Run{ID: uuid.New(), Trigger: trigger, Status: store.StatusRunning}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	log := r.logger.With("run_id", run.ID.String(), "trigger", trigger)
	log.Info("run started")
	r.publish(hermes.SubjectRunStarted(run.ID.String()), hermes.RunStartedEvent{
		RunID:     run.ID.String(),
		Trigger:   trigger,
		Timestamp: start.UTC(),
	})

	loadStart := time.Now()
	in, err := r.loader.Load(ctx)
	if err != nil {
		return nil, r.fail(ctx, run, fmt.Errorf("load inputs: %w", err))
	}
	r.metrics.ObserveStage("load", time.Since(loadStart))

	res, err := r.engine.execute(run.ID, in)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}
	for _, st := range res.Stages {
		r.metrics.ObserveStage(st.Stage, st.Duration)
	}

	summary := Summarize(res, r.topN)
	exps, err := Experiments(res)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}
	if err := r.store.SaveExperiments(ctx, run.ID, exps); err != nil {
		return nil, r.fail(ctx, run, fmt.Errorf("save experiments: %w", err))
	}

	doc, err := json.Marshal(summary)
	if err != nil {
		return nil, r.fail(ctx, run, fmt.Errorf("encode summary: %w", err))
	}
	now := time.Now().UTC()
	run.Status = store.StatusCompleted
	run.CompletedAt = &now
	run.Experiments = summary.Feasibility.Total
	run.Feasible = summary.Feasibility.Feasible
	run.Warnings = warningCounts(res.Diagnostics)
	run.Summary = doc
	if err := r.store.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}

	r.metrics.RecordRun(string(store.StatusCompleted))
	r.metrics.RecordDiagnostics(res.Diagnostics)
	r.metrics.RecordSuccess(run.Experiments, run.Feasible, now)

	event := hermes.RunCompletedEvent{
		RunID:       run.ID.String(),
		Experiments: run.Experiments,
		Feasible:    run.Feasible,
		Warnings:    run.Warnings,
		DurationMs:  time.Since(start).Milliseconds(),
		Timestamp:   now,
	}
	if len(summary.Ranking.TopAll) > 0 {
		event.Best = summary.Ranking.TopAll[0].ExperimentID
		event.BestScore = summary.Ranking.TopAll[0].Score
	}
	r.publish(hermes.SubjectRunCompleted(run.ID.String()), event)

	log.Info("run completed",
		"experiments", run.Experiments,
		"feasible", run.Feasible,
		"best", event.Best,
		"duration_ms", event.DurationMs,
	)
	return &Outcome{Run: run, Result: res, Summary: summary}, nil
}

func (r *Runner) fail(ctx context.Context, run *store.Run, cause error) error {
	now := time.Now().UTC()
	run.Status = store.StatusFailed
	run.CompletedAt = &now
	run.Error = cause.Error()
	if err := r.store.UpdateRun(ctx, run); err != nil {
		r.logger.Error("failed to record run failure", "run_id", run.ID, "error", err)
	}
	r.metrics.RecordRun(string(store.StatusFailed))
	r.publish(hermes.SubjectRunFailed(run.ID.String()), hermes.RunFailedEvent{
		RunID:     run.ID.String(),
		Error:     run.Error,
		Timestamp: now,
	})
	r.logger.Error("run failed", "run_id", run.ID, "error", cause)
	return cause
}

func (r *Runner) publish(subject string, event interface{}) {
	if r.hermes == nil {
		return
	}
	if err := r.hermes.Publish(subject, event); err != nil {
		r.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// Summarize builds the stored summary document of a result.
func Summarize(res *Result, topN int) Summary {
	s := Summary{
		Feasibility: report.Feasibility(res.Experiments),
		Ranking:     report.Ranking(res.Experiments, res.Indicators, topN),
		Diagnostics: res.Diagnostics.Entries(),
	}
	for _, e := range res.AggregationErrors {
		s.AggregationErrors = append(s.AggregationErrors, e.Error())
	}
	return s
}

// Experiments converts the ranked table into storable rows, each with its
// flat columns and score breakdown.
func Experiments(res *Result) ([]*store.Experiment, error) {
	t := res.Experiments
	out := make([]*store.Experiment, 0, t.Len())
	for i, rec := range t.Records {
		ex, err := scoring.Explain(t, rec.ID, res.Indicators)
		if err != nil {
			return nil, fmt.Errorf("explain %s: %w", rec.ID, err)
		}
		explain, err := json.Marshal(ex)
		if err != nil {
			return nil, fmt.Errorf("encode explanation %s: %w", rec.ID, err)
		}
		out = append(out, &store.Experiment{
			RunID:              res.RunID,
			ExperimentID:       rec.ID,
			Feasible:           rec.Feasible,
			ViolationCount:     rec.ViolationCount,
			EconomicScore:      rec.EconomicScore,
			EnvironmentalScore: rec.EnvironmentalScore,
			TotalScore:         rec.TotalScore,
			RankAll:            rec.RankAll,
			Rank:               rec.Rank,
			ParetoOptimal:      rec.ParetoOptimal,
			Columns:            t.Row(i),
			Explain:            explain,
		})
	}
	return out, nil
}

func warningCounts(r *diag.Report) map[string]int {
	totals := r.Totals()
	if len(totals) == 0 {
		return nil
	}
	out := make(map[string]int, len(totals))
	for _, e := range totals {
		out[string(e.Kind)] = e.Count
	}
	return out
}
