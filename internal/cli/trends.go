package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTrendsCmd(a *app) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show the recorded availability trend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}

			to := time.Now().UTC()
			checks, err := st.AvailabilityTrend(cmd.Context(), to.Add(-window), to)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), checks)
			}

			out := cmd.OutOrStdout()
			if len(checks) == 0 {
				fmt.Fprintf(out, "No checks recorded in the last %s. Run \"statuswatch check\" first.\n", window)
				return nil
			}

			for _, c := range checks {
				fmt.Fprintf(out, "%s  %6.2f%%  %-10s %d/%d operational\n",
					c.CheckedAt.Format("2006-01-02 15:04:05"),
					c.Availability, c.OverallStatus, c.Operational, c.TotalServices)
			}

			first, last := checks[0].Availability, checks[len(checks)-1].Availability
			delta := last - first
			direction := "steady"
			if delta > 0.01 {
				direction = "improving"
			} else if delta < -0.01 {
				direction = "declining"
			}
			fmt.Fprintf(out, "%d checks, availability %s (%+.2f%% over %s)\n",
				len(checks), direction, delta, window)
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "trend window")
	return cmd
}
