package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const runColumns = `run_id, trigger, status, started_at, completed_at,
	experiments, feasible, warnings, summary, error`

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	warningsJSON, _ := json.Marshal(run.Warnings)

	return s.pool.QueryRow(ctx, `
		INSERT INTO assay_runs (run_id, trigger, status, experiments, feasible, warnings, summary, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING started_at`,
		run.ID, run.Trigger, run.Status, run.Experiments, run.Feasible,
		warningsJSON, nullJSON(run.Summary), run.Error,
	).Scan(&run.StartedAt)
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *Run) error {
	warningsJSON, _ := json.Marshal(run.Warnings)

	tag, err := s.pool.Exec(ctx, `
		UPDATE assay_runs SET
			status = $2, completed_at = $3,
			experiments = $4, feasible = $5,
			warnings = $6, summary = $7, error = $8
		WHERE run_id = $1`,
		run.ID, run.Status, run.CompletedAt,
		run.Experiments, run.Feasible,
		warningsJSON, nullJSON(run.Summary), run.Error,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM assay_runs WHERE run_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM assay_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (s *PostgresStore) SaveExperiments(ctx context.Context, runID uuid.UUID, experiments []*Experiment) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assay_experiments WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("clear experiments: %w", err)
		}
		batch := &pgx.Batch{}
		for _, e := range experiments {
			columnsJSON, err := json.Marshal(e.Columns)
			if err != nil {
				return fmt.Errorf("encode experiment %s: %w", e.ExperimentID, err)
			}
			batch.Queue(`
				INSERT INTO assay_experiments (run_id, exp_id, is_feasible, violation_count,
					economic_score, environmental_score, total_score, rank_all, rank,
					pareto_optimal, columns, explain)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				runID, e.ExperimentID, e.Feasible, e.ViolationCount,
				e.EconomicScore, e.EnvironmentalScore, e.TotalScore, e.RankAll, e.Rank,
				e.ParetoOptimal, columnsJSON, nullJSON(e.Explain),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

const experimentColumns = `run_id, exp_id, is_feasible, violation_count,
	economic_score, environmental_score, total_score, rank_all, rank,
	pareto_optimal, columns, explain`

func (s *PostgresStore) ListExperiments(ctx context.Context, runID uuid.UUID, filter ExperimentFilter) ([]*Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM assay_experiments WHERE run_id = $1`
	args := []interface{}{runID}
	if filter.FeasibleOnly {
		query += " AND is_feasible"
	}
	query += " ORDER BY rank_all ASC, exp_id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExperiments(rows)
}

func (s *PostgresStore) GetExperiment(ctx context.Context, runID uuid.UUID, experimentID string) (*Experiment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+experimentColumns+`
		FROM assay_experiments WHERE run_id = $1 AND exp_id = $2`, runID, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exps, err := scanExperiments(rows)
	if err != nil || len(exps) == 0 {
		return nil, err
	}
	return exps[0], nil
}

func scanRuns(rows pgx.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var warningsJSON, summaryJSON []byte
		var runError sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Trigger, &r.Status, &r.StartedAt, &r.CompletedAt,
			&r.Experiments, &r.Feasible, &warningsJSON, &summaryJSON, &runError,
		); err != nil {
			return nil, err
		}
		if warningsJSON != nil {
			_ = json.Unmarshal(warningsJSON, &r.Warnings)
		}
		if summaryJSON != nil {
			r.Summary = json.RawMessage(summaryJSON)
		}
		if runError.Valid {
			r.Error = runError.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanExperiments(rows pgx.Rows) ([]*Experiment, error) {
	var exps []*Experiment
	for rows.Next() {
		e := &Experiment{}
		var columnsJSON, explainJSON []byte
		if err := rows.Scan(
			&e.RunID, &e.ExperimentID, &e.Feasible, &e.ViolationCount,
			&e.EconomicScore, &e.EnvironmentalScore, &e.TotalScore, &e.RankAll, &e.Rank,
			&e.ParetoOptimal, &columnsJSON, &explainJSON,
		); err != nil {
			return nil, err
		}
		if columnsJSON != nil {
			_ = json.Unmarshal(columnsJSON, &e.Columns)
		}
		if explainJSON != nil {
			e.Explain = json.RawMessage(explainJSON)
		}
		exps = append(exps, e)
	}
	return exps, rows.Err()
}

// nullJSON maps an empty document to SQL NULL.
func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
