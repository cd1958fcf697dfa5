// Package store persists pipeline run history in PostgreSQL. Persistence is
// optional: the pipeline runs fully without a configured database, and the
// store only records outcomes, it never feeds back into validation or KPIs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensorlab/mfgqc/internal/validator"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
    id             UUID PRIMARY KEY,
    source_file    TEXT NOT NULL,
    started_at     TIMESTAMPTZ NOT NULL,
    finished_at    TIMESTAMPTZ NOT NULL,
    total_records  INT NOT NULL,
    failure_count  INT NOT NULL,
    failure_rate   DOUBLE PRECISION NOT NULL,
    pass_count     INT NOT NULL,
    warn_count     INT NOT NULL,
    fail_count     INT NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
    id         BIGSERIAL PRIMARY KEY,
    run_id     UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
    position   INT NOT NULL,
    check_name TEXT NOT NULL,
    status     TEXT NOT NULL,
    message    TEXT NOT NULL,
    details    JSONB
);

CREATE INDEX IF NOT EXISTS idx_validation_results_run
    ON validation_results(run_id);
`

// RunRecord summarizes one pipeline run.
type RunRecord struct {
	ID           uuid.UUID `json:"id"`
	SourceFile   string    `json:"source_file"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	TotalRecords int       `json:"total_records"`
	FailureCount int       `json:"failure_count"`
	FailureRate  float64   `json:"failure_rate"`
	PassCount    int       `json:"pass_count"`
	WarnCount    int       `json:"warn_count"`
	FailCount    int       `json:"fail_count"`
}

// Store records pipeline runs and their validation results.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the run-history schema exists.
func New(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run record and its validation results in one
// transaction. Result details are stored as JSON objects keyed in their
// recorded order.
func (s *Store) SaveRun(ctx context.Context, run RunRecord, results []validator.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pipeline_runs
			(id, source_file, started_at, finished_at,
			 total_records, failure_count, failure_rate,
			 pass_count, warn_count, fail_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.SourceFile, run.StartedAt, run.FinishedAt,
		run.TotalRecords, run.FailureCount, run.FailureRate,
		run.PassCount, run.WarnCount, run.FailCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range results {
		details, err := encodeDetails(r.Details)
		if err != nil {
			return fmt.Errorf("encode details for %q: %w", r.CheckName, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO validation_results
				(run_id, position, check_name, status, message, details)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			run.ID, i, r.CheckName, string(r.Status), r.Message, details,
		)
		if err != nil {
			return fmt.Errorf("insert result %q: %w", r.CheckName, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// LatestRuns returns the most recent runs, newest first.
func (s *Store) LatestRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_file, started_at, finished_at,
		       total_records, failure_count, failure_rate,
		       pass_count, warn_count, fail_count
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.ID, &r.SourceFile, &r.StartedAt, &r.FinishedAt,
			&r.TotalRecords, &r.FailureCount, &r.FailureRate,
			&r.PassCount, &r.WarnCount, &r.FailCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// encodeDetails flattens the ordered detail list into a JSON object.
// Key order inside the object is not significant in storage; the position
// column preserves result ordering.
func encodeDetails(details []validator.Detail) ([]byte, error) {
	if len(details) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(details))
	for _, d := range details {
		m[d.Key] = fmt.Sprintf("%v", d.Value)
	}
	return json.Marshal(m)
}
