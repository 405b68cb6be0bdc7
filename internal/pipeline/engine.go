// Package pipeline chains the computation stages into a run and wires a run
// to storage, events and metrics.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/compute"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/experiment"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/source"
)

// Options are the numeric and policy knobs of a run.
type Options struct {
	ScorePrecision    int
	ValuePrecision    int
	DegenerateEpsilon float64
	ValidateWeights   scoring.ValidationMode
	ParetoEnabled     bool
}

func DefaultOptions() Options {
	return Options{
		ScorePrecision:    scoring.DefaultPrecision,
		ValuePrecision:    compute.DefaultPrecision,
		DegenerateEpsilon: experiment.DefaultEpsilon,
		ValidateWeights:   scoring.ValidateOff,
		ParetoEnabled:     true,
	}
}

// StageTiming is how long one stage of a run took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result is everything one execution produced.
type Result struct {
	RunID             uuid.UUID
	Indicators        []catalog.Indicator
	Tables            *frame.Set
	Experiments       *experiment.Table
	AggregationErrors []*experiment.AggregationError
	Diagnostics       *diag.Report
	Stages            []StageTiming
}

// Engine runs the pure stage chain. It holds no state between runs.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Execute computes, aggregates, checks, normalizes, scores and ranks. Only a
// configuration problem or a design table without experiment ids stops it;
// everything else ends up in the result's diagnostics.
func (e *Engine) Execute(in *source.Inputs) (*Result, error) {
	return e.execute(uuid.New(), in)
}

func (e *Engine) execute(runID uuid.UUID, in *source.Inputs) (*Result, error) {
	if in == nil || in.Catalog == nil || in.Design == nil || in.Entities == nil {
		return nil, fmt.Errorf("execute: incomplete inputs")
	}
	res := &Result{
		RunID:       runID,
		Indicators:  in.Catalog.Indicators,
		Diagnostics: diag.New(),
	}
	log := e.logger.With("run_id", res.RunID.String())

	weights := scoring.WeightsFrom(in.Catalog.Indicators)
	if err := weights.Check(e.opts.ValidateWeights, log); err != nil {
		return nil, err
	}
	if e.opts.ValidateWeights == scoring.ValidateWarn && weights.Validate() != nil {
		res.Diagnostics.Add(diag.WeightSum, "weights", 1)
	}

	timed := func(stage string, fn func()) {
		start := time.Now()
		fn()
		res.Stages = append(res.Stages, StageTiming{Stage: stage, Duration: time.Since(start)})
	}

	timed("compute", func() {
		computed := compute.NewEngine(in.Attributes, e.opts.ValuePrecision, log).Compute(in.Entities, in.Catalog)
		res.Tables = computed.Tables
		res.Diagnostics.Merge(computed.Diagnostics)
	})

	var (
		table *experiment.Table
		err   error
	)
	timed("aggregate", func() {
		var report *diag.Report
		table, res.AggregationErrors, report, err = experiment.NewAggregator(e.opts.ValuePrecision, log).
			Aggregate(in.Design, res.Tables, res.Indicators)
		if report != nil {
			res.Diagnostics.Merge(report)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	timed("feasibility", func() {
		var report *diag.Report
		table, report = experiment.NewFeasibilityChecker(log).Check(table, res.Indicators)
		res.Diagnostics.Merge(report)
	})
	timed("normalize", func() {
		var report *diag.Report
		table, report = experiment.NewNormalizer(e.opts.ValuePrecision, e.opts.DegenerateEpsilon, log).
			Normalize(table, res.Indicators)
		res.Diagnostics.Merge(report)
	})

	scorer := scoring.NewScorer(e.opts.ScorePrecision, log)
	timed("score", func() {
		var report *diag.Report
		table, report = scorer.Score(table, res.Indicators)
		res.Diagnostics.Merge(report)
	})
	timed("rank", func() {
		table = scorer.Rank(table)
	})
	if e.opts.ParetoEnabled {
		timed("pareto", func() {
			table = scorer.MarkFrontier(table)
		})
	}
	res.Experiments = table

	log.Info("execution complete",
		"experiments", table.Len(),
		"feasible", len(table.Feasible()),
		"aggregation_errors", len(res.AggregationErrors),
		"warnings", res.Diagnostics.Len(),
	)
	return res, nil
}
