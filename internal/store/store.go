package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is one execution of the ranking pipeline.
type Run struct {
	ID          uuid.UUID  `json:"run_id"`
	Trigger     string     `json:"trigger"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result
	Experiments int             `json:"experiments"`
	Feasible    int             `json:"feasible"`
	Warnings    map[string]int  `json:"warnings,omitempty"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Experiment is one ranked experiment of a run.
type Experiment struct {
	RunID              uuid.UUID `json:"run_id"`
	ExperimentID       string    `json:"exp_id"`
	Feasible           bool      `json:"is_feasible"`
	ViolationCount     int       `json:"violation_count"`
	EconomicScore      float64   `json:"economic_score"`
	EnvironmentalScore float64   `json:"environmental_score"`
	TotalScore         float64   `json:"total_weighted_score"`
	RankAll            int       `json:"rank_all"`
	Rank               *int      `json:"rank"`
	ParetoOptimal      bool      `json:"pareto_optimal"`

	// Columns is the flat experiment row.
	Columns map[string]interface{} `json:"columns"`
	Explain json.RawMessage        `json:"explain,omitempty"`
}

type ExperimentFilter struct {
	FeasibleOnly bool
	Limit        int
}

type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// SaveExperiments replaces the experiments of a run.
	SaveExperiments(ctx context.Context, runID uuid.UUID, experiments []*Experiment) error
	// ListExperiments returns experiments ordered by rank_all, then id.
	ListExperiments(ctx context.Context, runID uuid.UUID, filter ExperimentFilter) ([]*Experiment, error)
	GetExperiment(ctx context.Context, runID uuid.UUID, experimentID string) (*Experiment, error)

	Close() error
}
