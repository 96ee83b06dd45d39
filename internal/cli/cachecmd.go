package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.responseCache()
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
				return nil
			}
			stats := c.Stats()

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries:   %d\n", stats.EntryCount)
			fmt.Fprintf(out, "Size:      %d / %d bytes\n", stats.TotalSizeBytes, stats.MaxSizeBytes)
			fmt.Fprintf(out, "Hits:      %d\n", stats.Hits)
			fmt.Fprintf(out, "Misses:    %d\n", stats.Misses)
			fmt.Fprintf(out, "Hit ratio: %.1f%%\n", stats.HitRatio*100)
			fmt.Fprintf(out, "Evictions: %d\n", stats.Evictions)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.responseCache()
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
				return nil
			}
			n := c.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "evict",
		Short: "Remove expired entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.responseCache()
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
				return nil
			}
			removed, freed := c.EvictExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries, freed %d bytes.\n", removed, freed)
			return nil
		},
	})

	return cmd
}
