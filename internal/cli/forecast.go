package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/analytics/forecast"
)

func newForecastCmd(a *app) *cobra.Command {
	var (
		metric  string
		horizon time.Duration
	)

	cmd := &cobra.Command{
		Use:   "forecast <service>",
		Short: "Fit a trend line to a service metric and extrapolate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			res, err := eng.ForecastService(cmd.Context(), args[0], metric, horizon)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}

			out := cmd.OutOrStdout()
			if res.Status == forecast.StatusInsufficientData {
				fmt.Fprintf(out, "%s/%s: not enough history to fit a trend (%d points)\n",
					args[0], metric, res.DataPoints)
				return nil
			}

			fmt.Fprintf(out, "%s/%s over %d points:\n", args[0], metric, res.DataPoints)
			fmt.Fprintf(out, "  Trend: %s (%.6f/s, r²=%.3f)\n", res.Direction, res.Slope, res.RSquared)
			fmt.Fprintf(out, "  Predicted in %s: %.2f\n", horizon, res.Predicted)
			fmt.Fprintf(out, "  Confidence: %.0f%%", res.Confidence*100)
			if res.Unreliable {
				fmt.Fprintf(out, " (below the %.0f%% reliability floor)", a.cfg.Analytics.MinConfidence*100)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", analytics.MetricHealth, "metric to forecast")
	cmd.Flags().DurationVar(&horizon, "horizon", 24*time.Hour, "how far ahead to extrapolate")
	return cmd
}
