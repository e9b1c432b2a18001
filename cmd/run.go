// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/observability"
)

// stopper is the part of the orchestrator the kill switch needs.
type stopper interface {
	Stop()
}

// notifySignals is replaced in tests.
var notifySignals = func(c chan<- os.Signal) func() {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return func() { signal.Stop(c) }
}

func newRunCmd() *cobra.Command {
	var (
		arm         bool
		autoApprove bool
		dryRun      bool
		planFile    string
	)

	runCmd := &cobra.Command{
		Use:   "run [goal...]",
		Short: "Plans a goal and drives the desktop until it is done",
		Long: `Plans the goal with the configured oracle and executes it step by step.
The agent refuses to act unless --arm is given. Ctrl+C is the kill switch: it
stops the run and disarms the agent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("auto-approve") {
				cfg.SetAutoApprove(autoApprove)
			}

			goal := strings.TrimSpace(strings.Join(args, " "))
			var plan *agent.Plan
			if planFile != "" {
				if plan, err = loadPlanFile(planFile); err != nil {
					return err
				}
				if goal == "" {
					goal = plan.Goal
				}
			}
			if goal == "" {
				return errors.New("a goal is required, either as arguments or in the plan file")
			}

			components, err := initializeAgentComponents(ctx, cfg, runOptions{
				Arm:    arm,
				DryRun: dryRun,
				In:     cmd.InOrStdin(),
				Out:    cmd.OutOrStdout(),
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize agent components: %w", err)
			}
			defer components.Shutdown(logger)

			if plan != nil {
				plan.Goal = goal
				components.Plans.Store(goal, plan)
				logger.Info("Using plan from file", zap.String("file", planFile), zap.Int("steps", len(plan.Steps)))
			}
			if dryRun {
				logger.Info("Dry run: input is recorded, not injected")
			}

			runErr := runWithKillSwitch(ctx, components.Orchestrator, components.Latch, goal, logger)
			state := components.Orchestrator.State()
			fmt.Fprintf(cmd.OutOrStdout(), "Run finished: %s\n", state)

			switch {
			case runErr == nil:
				return nil
			case errors.Is(runErr, agent.ErrDisarmed):
				fmt.Fprintln(cmd.OutOrStdout(), "The agent is disarmed. Re-run with --arm to let it act.")
				return runErr
			case errors.Is(runErr, agent.ErrStopped):
				logger.Warn("Run stopped", zap.Error(runErr))
				return nil
			default:
				return runErr
			}
		},
	}

	runCmd.Flags().BoolVar(&arm, "arm", false, "Arm the agent so it may send input")
	runCmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Approve confirmations without asking (overrides config)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", true, "Record input and commands instead of performing them")
	runCmd.Flags().StringVar(&planFile, "plan", "", "YAML plan file to execute instead of asking the planner")
	return runCmd
}

// runWithKillSwitch runs goal while watching for SIGINT/SIGTERM. A signal
// stops the run and disarms the latch.
func runWithKillSwitch(ctx context.Context, orch interface {
	stopper
	RunGoal(ctx context.Context, goal string) error
}, latch agent.Latch, goal string, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatching := context.WithCancel(gctx)

	sigs := make(chan os.Signal, 1)
	release := notifySignals(sigs)
	defer release()

	g.Go(func() error {
		defer stopWatching()
		return orch.RunGoal(gctx, goal)
	})
	g.Go(func() error {
		watchKillSwitch(watchCtx, sigs, orch, latch, logger)
		return nil
	})
	return g.Wait()
}

// watchKillSwitch blocks until ctx ends or a signal arrives.
func watchKillSwitch(ctx context.Context, sigs <-chan os.Signal, orch stopper, latch agent.Latch, logger *zap.Logger) {
	select {
	case <-ctx.Done():
	case sig := <-sigs:
		logger.Warn("Kill switch triggered; stopping and disarming", zap.String("signal", sig.String()))
		latch.Disarm()
		orch.Stop()
	}
}

// loadPlanFile reads a plan exported by `plan --out`.
func loadPlanFile(path string) (*agent.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var plan agent.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan file %s: %w", path, agent.ErrEmptyPlan)
	}
	for i := range plan.Steps {
		plan.Steps[i].RiskLevel = agent.ParseRisk(string(plan.Steps[i].RiskLevel))
	}
	return &plan, nil
}
