package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/notify"
)

func newNotifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage notification channels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test alert through every configured channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr := a.notifier()
			channels := mgr.Channels()
			if len(channels) == 0 {
				return fmt.Errorf("no notification channels configured")
			}

			alert := notify.NewAlert(
				notify.SeverityCritical,
				"Test alert",
				"This is a statuswatch delivery test. No action is required.",
			).WithDetail("channels", strings.Join(channels, ", "))

			sent, err := mgr.Dispatch(cmd.Context(), alert)
			if err != nil {
				return err
			}
			if !sent {
				return fmt.Errorf("test alert was filtered; check min_severity and cooldown settings")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test alert %s delivered via %s.\n", alert.ID, strings.Join(channels, ", "))
			return nil
		},
	})

	return cmd
}
