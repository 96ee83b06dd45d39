package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Grade overall health over a time window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			rep, err := eng.Report(cmd.Context(), window)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), rep)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Health grade: %s (score %.2f)\n", rep.Grade, rep.Score)
			fmt.Fprintf(out, "Window: %s, %d checks\n", window, rep.Checks)
			fmt.Fprintf(out, "Mean availability: %.2f%%\n", rep.Availability)
			fmt.Fprintf(out, "Active anomalies: %d (penalty %.1f each)\n", rep.ActiveAnomalies, rep.AnomalyPenalty)
			for severity, n := range rep.BySeverity {
				fmt.Fprintf(out, "  %s: %d\n", severity, n)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "reporting window")
	return cmd
}
