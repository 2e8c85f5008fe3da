package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep moving overdue tasks to Timeout until interrupted",
		Long: `Keep the board open: every interval, tasks whose deadline has passed are
moved to Timeout on the backend and the counters are printed again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.SweepInterval
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			renderBoard(out, a.store.Board(), a.store.Counts(), a.now())

			a.store.RunSweeper(cmd.Context(), interval, func(moved int) {
				if moved > 0 {
					fmt.Fprintf(out, "%s moved %d task(s) to Timeout\n", a.now().Format("15:04:05"), moved)
				}
				fmt.Fprintln(out, renderCounts(st, a.store.Counts()))
			})
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "time between sweeps (default SWEEP_INTERVAL)")
	return cmd
}
