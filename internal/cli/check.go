package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/statusapi"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		filter  string
		showAll bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Poll the status page and record a snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			summary, info, err := a.apiClient().FetchSummary(cmd.Context(), a.useCache())
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			health := statusapi.ExtractHealth(summary, now)
			rec, err := eng.Ingest(cmd.Context(), health, summary.Status.Indicator, info)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"page":   summary.Page.Name,
					"status": summary.Status,
					"health": health,
					"check":  rec,
					"fetch":  info,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (%s)\n", summary.Page.Name, summary.Status.Description, summary.Status.Indicator)
			fmt.Fprintf(out, "Availability: %.1f%% (%d of %d services operational)\n",
				health.Availability, health.Operational, health.Total)

			if !quiet {
				if showAll {
					for _, comp := range summary.Components {
						if comp.Group || !matchesFilter(comp.Name, filter) {
							continue
						}
						marker := "-"
						if comp.Status != statusapi.StatusOperational {
							marker = "!"
						}
						fmt.Fprintf(out, "  %s %s: %s (health %.0f)\n",
							marker, comp.Name, comp.Status, statusapi.HealthScore(comp, now))
					}
				} else {
					for _, c := range health.WithIssues {
						if !matchesFilter(c.Name, filter) {
							continue
						}
						fmt.Fprintf(out, "  ! %s: %s (health %.0f)\n", c.Name, c.Status, c.HealthScore)
					}
				}
			}

			if health.OpenIncidents > 0 {
				fmt.Fprintf(out, "Open incidents: %d\n", health.OpenIncidents)
			}
			source := "live"
			if info.FromCache {
				source = "cache"
			} else {
				fmt.Fprintf(out, "Response time: %s\n", info.ResponseTime.Round(time.Millisecond))
			}
			fmt.Fprintf(out, "Source: %s\n", source)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only list services whose name contains this substring")
	cmd.Flags().BoolVar(&showAll, "all", false, "list every service, not only those with issues")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-service lines")
	return cmd
}

// matchesFilter reports whether a service name matches the case-insensitive
// substring filter. An empty filter matches everything.
func matchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
