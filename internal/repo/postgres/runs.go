package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/repo"
)

// RunStore keeps run records in pipeline_runs. The full record lives in the
// document column; the other columns exist for querying.
type RunStore struct {
	db DB
}

var _ repo.RunRepository = (*RunStore)(nil)

const (
	createRunsTableQuery = `CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id text PRIMARY KEY,
		pipeline_name text NOT NULL,
		status text NOT NULL,
		started_at timestamptz NOT NULL,
		ended_at timestamptz,
		document jsonb NOT NULL
	)`

	upsertRunQuery = `INSERT INTO pipeline_runs (
		run_id,
		pipeline_name,
		status,
		started_at,
		ended_at,
		document
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (run_id) DO UPDATE SET
		pipeline_name = EXCLUDED.pipeline_name,
		status = EXCLUDED.status,
		started_at = EXCLUDED.started_at,
		ended_at = EXCLUDED.ended_at,
		document = EXCLUDED.document`

	selectRunQuery = `SELECT document
	 FROM pipeline_runs
	 WHERE run_id = $1`

	listRunIDsQuery = `SELECT run_id
	 FROM pipeline_runs
	 ORDER BY run_id ASC`
)

func NewRunStore(db DB) *RunStore {
	if db == nil {
		return nil
	}
	return &RunStore{db: db}
}

// EnsureSchema creates pipeline_runs when it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, createRunsTableQuery); err != nil {
		return fmt.Errorf("create pipeline_runs: %w", err)
	}
	return nil
}

func (s *RunStore) Save(ctx context.Context, run domain.RunRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("run store not initialized")
	}
	id, err := repo.ValidateRunID(run.RunID)
	if err != nil {
		return "", err
	}
	doc, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", id, err)
	}

	var endedAt sql.NullTime
	if !run.EndTime.IsZero() {
		endedAt = sql.NullTime{Time: run.EndTime, Valid: true}
	}

	if _, err := s.db.ExecContext(
		ctx,
		upsertRunQuery,
		id,
		run.PipelineName,
		string(run.Status),
		run.StartTime.UTC(),
		nullTime(endedAt),
		doc,
	); err != nil {
		return "", fmt.Errorf("upsert run %s: %w", id, err)
	}
	return id, nil
}

func (s *RunStore) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store not initialized")
	}
	id, err := repo.ValidateRunID(runID)
	if err != nil {
		return nil, err
	}

	var doc []byte
	if err := s.db.QueryRowContext(ctx, selectRunQuery, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	var run domain.RunRecord
	if err := json.Unmarshal(doc, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *RunStore) ListRuns(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, listRunIDsQuery)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return ids, nil
}
