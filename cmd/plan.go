// File: cmd/plan.go
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/observability"
	"github.com/xkilldash9x/deskpilot/internal/oracle"
)

func newPlanCmd() *cobra.Command {
	var out string

	planCmd := &cobra.Command{
		Use:   "plan <goal...>",
		Short: "Asks the planner for a plan and prints it as YAML without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			goal := strings.TrimSpace(strings.Join(args, " "))
			if goal == "" {
				return agent.ErrEmptyGoal
			}

			self, _ := selfSurface(cfg.Policy())
			planner, err := oracle.New(ctx, cfg.Oracle(), self, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize oracle: %w", err)
			}

			plan, err := planner.GeneratePlan(ctx, goal)
			if err != nil {
				return fmt.Errorf("planning failed: %w", err)
			}
			if plan == nil || len(plan.Steps) == 0 {
				return agent.ErrEmptyPlan
			}
			plan.Steps = plan.OrderedSteps()

			data, err := yaml.Marshal(plan)
			if err != nil {
				return fmt.Errorf("failed to encode plan: %w", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write plan file: %w", err)
			}
			logger.Info("Plan written", zap.String("file", out), zap.Int("steps", len(plan.Steps)))
			fmt.Fprintf(cmd.OutOrStdout(), "Plan with %d steps written to %s\nRun it with: deskpilot run --arm --plan %s\n", len(plan.Steps), out, out)
			return nil
		},
	}

	planCmd.Flags().StringVarP(&out, "out", "o", "", "Write the plan to this YAML file instead of stdout")
	return planCmd
}
