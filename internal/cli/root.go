package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/cache"
	"github.com/statuswatch/statuswatch/internal/config"
	"github.com/statuswatch/statuswatch/internal/logging"
	"github.com/statuswatch/statuswatch/internal/notify"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
	"github.com/statuswatch/statuswatch/internal/version"
)

// app carries per-invocation state shared by the subcommands. Components are
// built lazily so cheap commands do not open the database or touch the
// network.
type app struct {
	configFile string
	noCache    bool
	jsonOut    bool

	cfg    *config.Config
	logger *zap.Logger

	storeOnce sync.Once
	store     store.Store
	storeErr  error

	cacheOnce sync.Once
	cache     cache.Cache

	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the statuswatch command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdout, os.Stderr)
}

// NewRootCommandWithIO builds the command tree with captured output, for tests.
func NewRootCommandWithIO(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(out, errOut)
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:           "statuswatch",
		Short:         "Status page monitor with anomaly detection and trend forecasting",
		Long:          "statuswatch polls a Statuspage-style summary endpoint, caches and persists the results, detects statistical anomalies in service health, forecasts trends, and grades overall availability.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "statuswatch.yaml", "path to the config file")
	cmd.PersistentFlags().BoolVar(&a.noCache, "no-cache", false, "bypass the response cache")
	cmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print machine-readable JSON")

	cmd.AddCommand(
		newCheckCmd(a),
		newAnalyzeCmd(a),
		newForecastCmd(a),
		newReportCmd(a),
		newTrendsCmd(a),
		newExportCmd(a),
		newCacheCmd(a),
		newDBCmd(a),
		newNotifyCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// initialize loads configuration and builds the logger.
func (a *app) initialize(ctx context.Context) error {
	mgr, err := config.NewManager(a.configFile)
	if err != nil {
		return err
	}
	if err := mgr.Load(ctx); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := mgr.Validate(ctx); err != nil {
		return err
	}
	a.cfg = mgr.Get(ctx)

	a.logger, err = logging.New(&logging.Config{
		Level:      a.cfg.Logging.Level,
		Format:     a.cfg.Logging.Format,
		File:       a.cfg.Logging.File,
		MaxSize:    a.cfg.Logging.MaxSizeMB,
		MaxBackups: a.cfg.Logging.MaxBackups,
		MaxAge:     a.cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// ─── Lazy components ─────────────────────────────────────────────────────────

func (a *app) openStore() (store.Store, error) {
	a.storeOnce.Do(func() {
		a.store, a.storeErr = store.NewSQLiteStore(a.cfg.Database.Path)
	})
	return a.store, a.storeErr
}

func (a *app) responseCache() cache.Cache {
	a.cacheOnce.Do(func() {
		if !a.cfg.Cache.Enabled {
			return
		}
		a.cache = cache.New(cache.Options{
			MaxSizeMB:   a.cfg.Cache.MaxSizeMB,
			DefaultTTL:  time.Duration(a.cfg.Cache.TTLSeconds) * time.Second,
			Compression: a.cfg.Cache.CompressionEnabled,
		})
	})
	return a.cache
}

func (a *app) apiClient() *statusapi.Client {
	return statusapi.NewClient(statusapi.Options{
		URL:        a.cfg.API.URL,
		Timeout:    time.Duration(a.cfg.API.TimeoutSeconds) * time.Second,
		MaxRetries: a.cfg.API.MaxRetries,
		RetryDelay: time.Duration(a.cfg.API.RetryDelaySeconds) * time.Second,
	}, a.responseCache(), time.Duration(a.cfg.Cache.TTLSeconds)*time.Second, a.logger)
}

func (a *app) engine() (analytics.Engine, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return analytics.NewEngine(st, analytics.Options{
		LearningWindow:   a.cfg.Analytics.LearningWindow,
		AnomalyThreshold: a.cfg.Analytics.AnomalyThreshold,
		MinConfidence:    a.cfg.Analytics.MinConfidence,
		Lookback:         time.Duration(a.cfg.Analytics.RetentionDays) * 24 * time.Hour,
		MaxConcurrent:    a.cfg.Workers.MaxConcurrent,
	}, a.logger)
}

func (a *app) notifier() notify.Manager {
	var channels []notify.Channel
	n := a.cfg.Notifications
	if n.Email.Enabled {
		channels = append(channels, notify.NewEmailChannel(notify.EmailConfig{
			Server:     n.Email.SMTPServer,
			Port:       n.Email.SMTPPort,
			UseTLS:     n.Email.UseTLS,
			Username:   n.Email.Username,
			Password:   n.Email.Password,
			From:       n.Email.From,
			Recipients: n.Email.Recipients,
		}))
	}
	for _, url := range n.Webhooks {
		channels = append(channels, notify.NewWebhookChannel(url, time.Duration(n.WebhookTimeoutSeconds)*time.Second))
	}
	return notify.NewManager(notify.ManagerOptions{
		MinSeverity: n.MinSeverity,
		Cooldown:    time.Duration(n.CooldownSeconds) * time.Second,
	}, channels, a.logger)
}

func (a *app) useCache() bool {
	return a.cfg.Cache.Enabled && !a.noCache
}
