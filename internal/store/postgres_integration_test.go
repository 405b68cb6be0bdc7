//go:build integration

package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE assay_experiments CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE assay_runs CASCADE")
		s.Close()
	})

	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Trigger: "integration-test", Status: StatusRunning}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("expected non-nil run ID after create")
	}
	if run.StartedAt.IsZero() {
		t.Fatal("expected started_at to be set")
	}

	now := time.Now()
	run.Status = StatusCompleted
	run.CompletedAt = &now
	run.Experiments = 3
	run.Feasible = 2
	run.Warnings = map[string]int{"sparse_data": 1}
	run.Summary = json.RawMessage(`{"total": 3}`)
	if err := s.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.Status != StatusCompleted || got.Feasible != 2 {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Warnings["sparse_data"] != 1 {
		t.Errorf("expected warnings round-trip, got %v", got.Warnings)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: %d runs, err %v", len(runs), err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestDB(t)
	got, err := s.GetRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSaveAndListExperiments(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Trigger: "integration-test", Status: StatusRunning}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	rank := 1
	exps := []*Experiment{
		{ExperimentID: "exp002", RankAll: 2, TotalScore: 0.1, Columns: map[string]interface{}{"exp_id": "exp002"}},
		{ExperimentID: "exp001", RankAll: 1, Rank: &rank, Feasible: true, TotalScore: 0.9,
			Columns: map[string]interface{}{"exp_id": "exp001"}, Explain: json.RawMessage(`{"exp_id":"exp001"}`)},
	}
	if err := s.SaveExperiments(ctx, run.ID, exps); err != nil {
		t.Fatalf("SaveExperiments failed: %v", err)
	}
	// Saving again replaces the previous rows.
	if err := s.SaveExperiments(ctx, run.ID, exps); err != nil {
		t.Fatalf("SaveExperiments (replace) failed: %v", err)
	}

	all, err := s.ListExperiments(ctx, run.ID, ExperimentFilter{})
	if err != nil {
		t.Fatalf("ListExperiments failed: %v", err)
	}
	if len(all) != 2 || all[0].ExperimentID != "exp001" {
		t.Fatalf("expected exp001 first of 2, got %+v", all)
	}
	if all[1].Rank != nil {
		t.Error("expected null rank for infeasible experiment")
	}

	feasible, _ := s.ListExperiments(ctx, run.ID, ExperimentFilter{FeasibleOnly: true})
	if len(feasible) != 1 {
		t.Errorf("expected 1 feasible, got %d", len(feasible))
	}

	e, err := s.GetExperiment(ctx, run.ID, "exp001")
	if err != nil || e == nil {
		t.Fatalf("GetExperiment: %v %v", e, err)
	}
	if len(e.Explain) == 0 {
		t.Error("expected explain document")
	}
}
