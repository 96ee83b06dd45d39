package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/export"
	"github.com/statuswatch/statuswatch/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded data as JSON or CSV",
	}
	cmd.AddCommand(newExportHistoryCmd(a), newExportAnomaliesCmd(a))
	return cmd
}

func newExportHistoryCmd(a *app) *cobra.Command {
	var (
		metric string
		format string
		output string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history <service>",
		Short: "Export metric history for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}

			history, err := st.History(cmd.Context(), args[0], metric, time.Now().Add(-since))
			if err != nil {
				return err
			}
			samples := make([]store.MetricSample, len(history))
			for i, s := range history {
				samples[i] = *s
			}

			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer closeFn()
			return export.History(w, samples, format)
		},
	}

	cmd.Flags().StringVar(&metric, "metric", analytics.MetricHealth, "metric to export")
	cmd.Flags().StringVar(&format, "format", export.FormatJSON, "output format (json or csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().DurationVar(&since, "since", 7*24*time.Hour, "how far back to export")
	return cmd
}

func newExportAnomaliesCmd(a *app) *cobra.Command {
	var (
		service  string
		severity string
		format   string
		output   string
		since    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Export detected anomalies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}

			recs, err := st.QueryAnomalies(cmd.Context(), store.AnomalyQuery{
				Service:  service,
				Severity: severity,
				From:     time.Now().Add(-since),
			})
			if err != nil {
				return err
			}
			anomalies := make([]store.AnomalyRecord, len(recs))
			for i, r := range recs {
				anomalies[i] = *r
			}

			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer closeFn()
			return export.Anomalies(w, anomalies, format)
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "filter by service")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&format, "format", export.FormatJSON, "output format (json or csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().DurationVar(&since, "since", 7*24*time.Hour, "how far back to export")
	return cmd
}

// openOutput resolves the export destination. The returned close function is
// a no-op for stdout.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
