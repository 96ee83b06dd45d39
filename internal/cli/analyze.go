package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/analytics/anomaly"
	"github.com/statuswatch/statuswatch/internal/notify"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var metric string

	cmd := &cobra.Command{
		Use:   "analyze [service]",
		Short: "Run anomaly detection over recorded history",
		Long:  "Checks the newest observation of each service against its learned baseline. With a service argument only that service is analyzed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			var results []anomaly.Result
			if len(args) == 1 {
				res, err := eng.AnalyzeService(cmd.Context(), args[0], metric)
				if err != nil {
					return err
				}
				results = append(results, res)
			} else {
				results, err = eng.AnalyzeAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			if a.cfg.Notifications.Enabled {
				a.dispatchAnomalies(cmd, results)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			anomalous := 0
			for _, r := range results {
				switch {
				case r.Status == anomaly.StatusInsufficientData:
					fmt.Fprintf(out, "  ? %s/%s: insufficient data (%d samples, need %d)\n",
						r.Service, r.Metric, r.Samples, eng.Detector().LearningWindow())
				case r.Anomalous:
					anomalous++
					fmt.Fprintf(out, "  ! %s/%s: %s anomaly, value %.2f expected %.2f (z=%.2f, confidence %.0f%%)\n",
						r.Service, r.Metric, r.Severity, r.Value, r.Expected, r.ZScore, r.Confidence*100)
				default:
					fmt.Fprintf(out, "  - %s/%s: normal, value %.2f expected %.2f (z=%.2f)\n",
						r.Service, r.Metric, r.Value, r.Expected, r.ZScore)
				}
			}
			fmt.Fprintf(out, "%d service metric(s) analyzed, %d anomalous\n", len(results), anomalous)
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", analytics.MetricHealth, "metric to analyze for a single service")
	return cmd
}

// dispatchAnomalies pushes anomalous results through the notification
// channels. Delivery failures are reported but do not fail the command.
func (a *app) dispatchAnomalies(cmd *cobra.Command, results []anomaly.Result) {
	mgr := a.notifier()
	for _, r := range results {
		if !r.Anomalous {
			continue
		}
		alert := notify.NewAlert(
			alertSeverity(r.Severity),
			fmt.Sprintf("Anomaly: %s %s", r.Service, r.Metric),
			fmt.Sprintf("Value %.2f deviates from the expected %.2f (z=%.2f, %s).",
				r.Value, r.Expected, r.ZScore, r.Severity),
		).WithService(r.Service, r.Metric).
			WithDetail("confidence", fmt.Sprintf("%.2f", r.Confidence))

		if _, err := mgr.Dispatch(cmd.Context(), alert); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "notification error: %v\n", err)
		}
	}
}

// alertSeverity folds detector severities into notification levels.
func alertSeverity(detectorSeverity string) string {
	switch detectorSeverity {
	case "critical":
		return notify.SeverityCritical
	case "high", "medium":
		return notify.SeverityWarning
	default:
		return notify.SeverityInfo
	}
}
