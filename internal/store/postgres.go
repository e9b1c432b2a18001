// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    goal TEXT NOT NULL,
    state TEXT NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    ended_at TIMESTAMPTZ,
    plan JSONB,
    steps INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_events (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    at TIMESTAMPTZ NOT NULL,
    kind TEXT NOT NULL,
    step_id INTEGER NOT NULL,
    message TEXT NOT NULL,
    success BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS run_events_run_id ON run_events (run_id, id);
`

const (
	sqlInsertEvent = `
        INSERT INTO run_events (run_id, at, kind, step_id, message, success)
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	sqlInsertRun = `
        INSERT INTO runs (run_id, goal, state, started_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (run_id) DO NOTHING;
    `
	sqlFinishRun = `
        UPDATE runs SET state = $2, ended_at = $3 WHERE run_id = $1;
    `
	sqlSavePlan = `
        UPDATE runs SET plan = $2, steps = $3 WHERE run_id = $1;
    `
	sqlListRuns = `
        SELECT r.run_id, r.goal, r.state, r.started_at, r.ended_at, r.steps,
            COUNT(e.id) FILTER (WHERE e.kind = 'action'),
            COUNT(e.id) FILTER (WHERE e.kind = 'action' AND NOT e.success)
        FROM runs r
        LEFT JOIN run_events e ON e.run_id = r.run_id
        GROUP BY r.run_id
        ORDER BY r.started_at DESC
        LIMIT $1;
    `
	sqlRunEvents = `
        SELECT at, kind, step_id, message, success
        FROM run_events
        WHERE run_id = $1
        ORDER BY id ASC;
    `
)

// PostgresJournal keeps run journals in PostgreSQL.
type PostgresJournal struct {
	pool DBPool
	log  *zap.Logger
}

var _ Journal = (*PostgresJournal)(nil)

// NewPostgres creates a journal on pool and verifies the connection.
func NewPostgres(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresJournal, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresJournal{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the journal tables if they are missing.
func (s *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// RecordEvent appends ev and keeps the run row in step with it.
func (s *PostgresJournal) RecordEvent(ctx context.Context, ev agent.RunEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	at := ev.Time.UTC()
	if ev.Kind == "run_started" {
		if _, err := tx.Exec(ctx, sqlInsertRun, ev.RunID, ev.Message, StateRunning, at); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, sqlInsertEvent, ev.RunID, at, ev.Kind, ev.StepID, ev.Message, ev.Success); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if state := terminalState(ev.Kind); state != "" {
		if _, err := tx.Exec(ctx, sqlFinishRun, ev.RunID, state, at); err != nil {
			return fmt.Errorf("failed to finish run: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SavePlan stores the plan as JSON on the run row.
func (s *PostgresJournal) SavePlan(ctx context.Context, runID string, plan *agent.Plan) error {
	encoded, err := encodePlan(plan)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, sqlSavePlan, runID, encoded, len(plan.Steps)); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func (s *PostgresJournal) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.pool.Query(ctx, sqlListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var actions, failures int64
		if err := rows.Scan(&r.RunID, &r.Goal, &r.State, &r.StartedAt, &r.EndedAt, &r.Steps, &actions, &failures); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Actions, r.Failures = int(actions), int(failures)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}

// Events returns the events of one run in the order they were recorded.
func (s *PostgresJournal) Events(ctx context.Context, runID string) ([]agent.RunEvent, error) {
	rows, err := s.pool.Query(ctx, sqlRunEvents, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []agent.RunEvent
	for rows.Next() {
		ev := agent.RunEvent{RunID: runID}
		var at time.Time
		if err := rows.Scan(&at, &ev.Kind, &ev.StepID, &ev.Message, &ev.Success); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Time = at
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return events, nil
}

func (s *PostgresJournal) Close() error {
	s.pool.Close()
	return nil
}
