package hermes

import "time"

// RunRequestEvent asks the service to start a run.
type RunRequestEvent struct {
	Trigger string `json:"trigger,omitempty"`
}

type RunStartedEvent struct {
	RunID     string    `json:"run_id"`
	Trigger   string    `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`
}

type RunCompletedEvent struct {
	RunID       string         `json:"run_id"`
	Experiments int            `json:"experiments"`
	Feasible    int            `json:"feasible"`
	Best        string         `json:"best_exp_id,omitempty"`
	BestScore   float64        `json:"best_score,omitempty"`
	Warnings    map[string]int `json:"warnings,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	Timestamp   time.Time      `json:"timestamp"`
}

type RunFailedEvent struct {
	RunID     string    `json:"run_id"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
