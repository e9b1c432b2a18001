// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/config"
	"github.com/xkilldash9x/deskpilot/internal/humanoid"
	"github.com/xkilldash9x/deskpilot/internal/observation"
	"github.com/xkilldash9x/deskpilot/internal/oracle"
	"github.com/xkilldash9x/deskpilot/internal/platform"
	"github.com/xkilldash9x/deskpilot/internal/policy"
	"github.com/xkilldash9x/deskpilot/internal/store"
)

// runOptions are the per-invocation choices of `run`.
type runOptions struct {
	Arm    bool
	DryRun bool
	In     io.Reader
	Out    io.Writer
}

// agentComponents holds initialized services for one run.
type agentComponents struct {
	Orchestrator *agent.Orchestrator
	Latch        *agent.ArmState
	Plans        *agent.PlanContext
	Journal      store.Journal
	Providers    platform.Providers
}

// Shutdown releases what the components hold open.
func (c *agentComponents) Shutdown(logger *zap.Logger) {
	if c.Journal != nil {
		if err := c.Journal.Close(); err != nil {
			logger.Warn("Error closing journal", zap.Error(err))
		}
	}
}

func executorConfig(c config.ExecutorConfig) agent.ExecutorConfig {
	return agent.ExecutorConfig{
		CommandTimeout: c.CommandTimeout,
		OutputPreview:  c.OutputPreview,
		DefaultShell:   c.DefaultShell,
	}
}

func orchestratorConfig(c config.AgentConfig) agent.OrchestratorConfig {
	return agent.OrchestratorConfig{
		MaxActionsPerStep: c.MaxActionsPerStep,
		RepeatThreshold:   c.RepeatThreshold,
		HistorySize:       c.HistorySize,
		Retry:             agent.RetryPolicy{MaxAttempts: c.MaxAttempts, Backoff: c.RetryBackoff},
		Settle:            c.Settle,
		LaunchSettle:      c.LaunchSettle,
	}
}

func observationConfig(c config.ObservationConfig) observation.Config {
	return observation.Config{
		Interval:    c.CaptureInterval,
		MaxWidth:    c.MaxWidth,
		JPEGQuality: c.JPEGQuality,
		Overlay:     observation.OverlayMode(c.Overlay),
	}
}

func selfSurface(c config.PolicyConfig) (agent.SelfSurface, string) {
	primary := "deskpilot"
	if len(c.SelfProcessNames) > 0 {
		primary = c.SelfProcessNames[0]
	}
	return agent.NewSelfSurface(c.SelfProcessNames...), primary
}

// initializeAgentComponents handles dependency injection for a run.
func initializeAgentComponents(ctx context.Context, cfg config.Interface, opts runOptions, logger *zap.Logger) (*agentComponents, error) {
	components := &agentComponents{}

	self, selfProcess := selfSurface(cfg.Policy())
	prefs := policy.NewPreferences(cfg.Policy().AutoApprove)
	engine := policy.NewEngine(cfg.Policy().AllowedProcesses, cfg.Policy().ConfirmCoordinateClicks)

	providers := platform.New(logger, opts.DryRun, selfProcess)
	components.Providers = providers

	executor := agent.NewExecutor(logger, agent.ExecutorDeps{
		Humanoid: humanoid.New(providers.Input, logger),
		Windows:  providers.Windows,
		UIA:      providers.UIA,
		Text:     providers.Text,
		Launcher: providers.Launcher,
		Self:     self,
	}, executorConfig(cfg.Executor()))
	enforced := policy.NewEnforcedExecutor(logger, executor, engine, providers.Windows, self, prefs)

	orc, err := oracle.New(ctx, cfg.Oracle(), self, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}

	journal, err := store.Open(ctx, cfg.Store(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	components.Journal = journal

	components.Latch = agent.NewArmState(opts.Arm)
	components.Plans = agent.NewPlanContext()

	orchestrator, err := agent.NewOrchestrator(logger, agent.OrchestratorDeps{
		Latch:      components.Latch,
		Plans:      components.Plans,
		Planner:    orc,
		Proposer:   orc,
		Completion: orc,
		Executor:   enforced,
		Policy:     engine,
		Confirm:    platform.NewTerminalConfirmation(logger, prefs, opts.In, opts.Out),
		Observer:   observation.NewProvider(logger, providers.Windows, providers.Capturer, observationConfig(cfg.Observation())),
		Journal:    journal,
	}, orchestratorConfig(cfg.Agent()))
	if err != nil {
		components.Shutdown(logger)
		return nil, err
	}
	components.Orchestrator = orchestrator
	return components, nil
}
