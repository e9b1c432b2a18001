// internal/store/journal.go
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StateRunning marks a run with no terminal event yet.
const StateRunning = "Running"

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID     string
	Goal      string
	State     string
	StartedAt time.Time
	EndedAt   *time.Time
	Steps     int
	Actions   int
	Failures  int
}

// Journal persists runs and lists them back.
type Journal interface {
	agent.Journal
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Events(ctx context.Context, runID string) ([]agent.RunEvent, error)
	Close() error
}

// Open connects the journal selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Journal, error) {
	switch cfg.Driver {
	case config.DriverNone, "":
		return Nop{}, nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		j, err := NewPostgres(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := j.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
}

// terminalState maps a run_<state> event kind to the state it records, or
// "" for any other kind.
func terminalState(kind string) string {
	switch kind {
	case "run_completed":
		return string(agent.StateCompleted)
	case "run_failed":
		return string(agent.StateFailed)
	case "run_stopped":
		return string(agent.StateStopped)
	}
	if s, ok := strings.CutPrefix(kind, "run_"); ok && s != "started" {
		return s
	}
	return ""
}

func encodePlan(plan *agent.Plan) (string, error) {
	b, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	return string(b), nil
}

// Nop discards everything. It backs the "none" driver.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) SavePlan(context.Context, string, *agent.Plan) error      { return nil }
func (Nop) RecordEvent(context.Context, agent.RunEvent) error        { return nil }
func (Nop) ListRuns(context.Context, int) ([]RunSummary, error)      { return nil, nil }
func (Nop) Events(context.Context, string) ([]agent.RunEvent, error) { return nil, nil }
func (Nop) Close() error                                             { return nil }
