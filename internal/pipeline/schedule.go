package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger starts one run.
type Trigger interface {
	Run(ctx context.Context, trigger string) (*Outcome, error)
}

// Scheduler triggers runs on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler parses expr (standard five-field syntax or descriptors such as
// "@hourly") and registers the run job. Nothing fires until Start.
func NewScheduler(t Trigger, expr string, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		trigger: t,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(expr, s.fire); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("run schedule started", "next", s.Next())
}

// Stop halts the schedule and waits for a running job to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next reports when the run job fires next. Zero until Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) fire() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.trigger.Run(ctx, "schedule")
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Info("scheduled run skipped, another run in progress")
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	default:
		s.logger.Info("scheduled run completed", "run_id", out.Run.ID, "experiments", out.Run.Experiments)
	}
}
