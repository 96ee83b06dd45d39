package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the history database",
	}
	cmd.AddCommand(newDBCleanupCmd(a), newDBVacuumCmd(a), newDBStatsCmd(a))
	return cmd
}

func newDBCleanupCmd(a *app) *cobra.Command {
	var olderThan int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete rows past the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}

			days := olderThan
			if days <= 0 {
				days = a.cfg.Analytics.RetentionDays
			}
			cutoff := time.Now().UTC().AddDate(0, 0, -days)

			removed, err := st.CleanupOldData(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d rows older than %d days.\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 0, "retention in days (default from config)")
	return cmd
}

func newDBVacuumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim free database pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if err := st.Vacuum(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database vacuumed.")
			return nil
		},
	}
}

func newDBStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}

			counts, err := st.TableCounts(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), counts)
			}

			tables := make([]string, 0, len(counts))
			for t := range counts {
				tables = append(tables, t)
			}
			sort.Strings(tables)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", a.cfg.Database.Path)
			for _, t := range tables {
				fmt.Fprintf(out, "  %-16s %d rows\n", t, counts[t])
			}
			return nil
		},
	}
}
