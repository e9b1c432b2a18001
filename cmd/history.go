// File: cmd/history.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/config"
	"github.com/xkilldash9x/deskpilot/internal/observability"
	"github.com/xkilldash9x/deskpilot/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Lists recent runs, or the events of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.Store().Driver == config.DriverNone {
				return fmt.Errorf("the run journal is disabled (store.driver is %q)", config.DriverNone)
			}

			journal, err := store.Open(ctx, cfg.Store(), logger)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer func() {
				if err := journal.Close(); err != nil {
					logger.Warn("Error closing journal", zap.Error(err))
				}
			}()

			if len(args) == 1 {
				events, err := journal.Events(ctx, args[0])
				if err != nil {
					return err
				}
				if len(events) == 0 {
					return fmt.Errorf("no events recorded for run %s", args[0])
				}
				return printEvents(cmd.OutOrStdout(), events)
			}

			runs, err := journal.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return historyCmd
}

func printRuns(w io.Writer, runs []store.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tDURATION\tSTATE\tSTEPS\tACTIONS\tFAILED\tGOAL")
	for _, r := range runs {
		duration := "-"
		if r.EndedAt != nil {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), duration, r.State,
			r.Steps, r.Actions, r.Failures, r.Goal)
	}
	return tw.Flush()
}

func printEvents(w io.Writer, events []agent.RunEvent) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTEP\tKIND\tOK\tMESSAGE")
	for _, ev := range events {
		step := "-"
		if ev.StepID > 0 {
			step = fmt.Sprint(ev.StepID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			ev.Time.Local().Format(time.TimeOnly), step, ev.Kind, ev.Success, ev.Message)
	}
	return tw.Flush()
}
