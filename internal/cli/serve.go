package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API, exporter, and WebSocket feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}

			if port == 0 {
				port = a.cfg.Web.Port
			}
			srv := web.NewServer(web.Options{
				Port:            port,
				RefreshInterval: time.Duration(a.cfg.Web.RefreshSeconds) * time.Second,
				AllowedOrigins:  a.cfg.Web.AllowedOrigins,
				ExporterEnabled: a.cfg.Web.ExporterEnabled,
			}, a.apiClient(), eng, st, a.logger)

			if err := srv.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on :%d (refresh every %ds). Press Ctrl+C to stop.\n",
				port, a.cfg.Web.RefreshSeconds)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-cmd.Context().Done():
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
			return srv.Stop()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}
