package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	auditlog "argus-hq/argus/pkg/audit/log"
	"argus-hq/argus/pkg/audit/sweep"
	"argus-hq/argus/pkg/cli"
	"argus-hq/argus/pkg/policy/engine"
	"argus-hq/argus/pkg/policy/source"
	"argus-hq/argus/pkg/telemetry/health"
	"argus-hq/argus/pkg/telemetry/logging"
	"argus-hq/argus/pkg/telemetry/metrics"
	"github.com/spf13/cobra"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the argus daemon",
	Long: `Start the argus daemon with the specified configuration.

The daemon loads the policy directory into the evaluation engine, opens
the tenant's audit log, and keeps both live: policy files are hot
reloaded when watching is enabled, and the audit chain is re-verified on
the configured sweep schedule. When metrics are enabled it serves
Prometheus metrics and health probes over HTTP.

Examples:
  # Start with default config
  argus run

  # Start with custom config
  argus run --config /etc/argus/argus.yaml

  # Validate config without starting
  argus run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Argus v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	// Canceled on SIGINT/SIGTERM.
	ctx := cli.SetupSignalHandler()

	var collector *metrics.Collector
	var pm *metrics.PolicyMetrics
	var am *metrics.AuditMetrics
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace, "", nil)
		pm = collector.Policy()
		am = collector.Audit()
	}

	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()

	l, err := auditlog.Open(ctx, store, cfg.Tenant.ID, cfg.Tenant.Scope, auditLogConfig(cfg), logger, am)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Audit log ready (%s)\n", l.ID())

	eng, err := engine.New(engineConfig(cfg), logger, pm)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	syncer := source.NewSyncer(source.NewLoader(nil), eng, logger)
	if err := syncer.Sync(cfg.Policy.Dir); err != nil {
		// Hot reload can recover a broken policy directory later; the
		// engine keeps serving whatever loaded cleanly.
		logger.Warn("initial policy load incomplete", "dir", cfg.Policy.Dir, "error", err)
	}
	fmt.Printf("✓ Policy engine loaded (%d documents)\n", len(eng.DocumentNames()))

	if cfg.Policy.Watch {
		watcher, err := source.NewFileWatcher(&source.FileWatcherConfig{
			Path:             cfg.Policy.Dir,
			DebounceInterval: cfg.Policy.DebounceDelay,
		}, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return syncer.Sync(cfg.Policy.Dir)
			}); err != nil {
				logger.Error("policy watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Println("✓ Policy hot reload enabled")
	}

	if cfg.Audit.SweepSchedule != "" {
		sweeper := sweep.NewSweeper(&sweep.Config{Schedule: cfg.Audit.SweepSchedule})
		sweeper.Register(l)
		if err := sweeper.Start(ctx); err != nil {
			logger.Warn("failed to start integrity sweep", "error", err)
		} else {
			defer sweeper.Stop()
			if next := sweeper.NextRun(); next != nil {
				fmt.Printf("✓ Integrity sweep scheduled (next run %s)\n", next.Format(time.RFC3339))
			}
		}
	}

	var srv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		checker := health.New(0)
		checker.RegisterCheck("audit_store", func(ctx context.Context) error {
			_, err := l.Metadata(ctx)
			return err
		})

		mux := http.NewServeMux()
		health.Register(mux, checker, Version, GitCommit, BuildDate)
		mux.Handle("/metrics", collector.Handler())

		srv = &http.Server{Addr: cfg.Telemetry.Metrics.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("telemetry server failed", "error", err)
			}
		}()
		fmt.Printf("✓ Telemetry server listening on %s\n", cfg.Telemetry.Metrics.Listen)
	}

	fmt.Println("\nPress Ctrl+C to stop")
	<-ctx.Done()

	fmt.Println("\nShutting down gracefully...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	fmt.Println("✓ Stopped")
	return nil
}
