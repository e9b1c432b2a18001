// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/deskpilot/internal/agent"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	goal TEXT NOT NULL,
	state TEXT NOT NULL,
	started_at TEXT NOT NULL,
	ended_at TEXT,
	plan TEXT,
	steps INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	at TEXT NOT NULL,
	kind TEXT NOT NULL,
	step_id INTEGER NOT NULL,
	message TEXT NOT NULL,
	success INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, id);
`

// SQLiteJournal keeps run journals in a local SQLite file.
type SQLiteJournal struct {
	DBPath string
	db     *sql.DB
	log    *zap.Logger
}

var _ Journal = (*SQLiteJournal)(nil)

// OpenSQLite opens or creates the journal database at path. ":memory:"
// gives a throwaway journal.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteJournal, error) {
	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve journal path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteJournal{DBPath: dsn, db: db, log: logger.Named("store")}, nil
}

func (s *SQLiteJournal) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordEvent appends ev and keeps the run row in step with it.
func (s *SQLiteJournal) RecordEvent(ctx context.Context, ev agent.RunEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	at := formatTime(ev.Time)
	if ev.Kind == "run_started" {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO runs (run_id, goal, state, started_at) VALUES (?, ?, ?, ?)",
			ev.RunID, ev.Message, StateRunning, at,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO run_events (run_id, at, kind, step_id, message, success) VALUES (?, ?, ?, ?, ?, ?)",
		ev.RunID, at, ev.Kind, ev.StepID, ev.Message, ev.Success,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if state := terminalState(ev.Kind); state != "" {
		if _, err := tx.ExecContext(ctx,
			"UPDATE runs SET state = ?, ended_at = ? WHERE run_id = ?",
			state, at, ev.RunID,
		); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SavePlan stores the plan as JSON on the run row.
func (s *SQLiteJournal) SavePlan(ctx context.Context, runID string, plan *agent.Plan) error {
	encoded, err := encodePlan(plan)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE runs SET plan = ?, steps = ? WHERE run_id = ?",
		encoded, len(plan.Steps), runID,
	); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func (s *SQLiteJournal) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.run_id, r.goal, r.state, r.started_at, r.ended_at, r.steps,
	COALESCE(SUM(CASE WHEN e.kind = 'action' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN e.kind = 'action' AND e.success = 0 THEN 1 ELSE 0 END), 0)
FROM runs r
LEFT JOIN run_events e ON e.run_id = r.run_id
GROUP BY r.run_id
ORDER BY r.started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&r.RunID, &r.Goal, &r.State, &startedAt, &endedAt, &r.Steps, &r.Actions, &r.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t, err := parseTime(endedAt.String)
			if err != nil {
				return nil, err
			}
			r.EndedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Events returns the events of one run in the order they were recorded.
func (s *SQLiteJournal) Events(ctx context.Context, runID string) ([]agent.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT at, kind, step_id, message, success FROM run_events WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []agent.RunEvent
	for rows.Next() {
		ev := agent.RunEvent{RunID: runID}
		var at string
		if err := rows.Scan(&at, &ev.Kind, &ev.StepID, &ev.Message, &ev.Success); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// timeLayout is fixed width so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
