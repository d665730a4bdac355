package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/extraction"
	"getgsa/onboarding/pkg/redact"
	"getgsa/onboarding/pkg/security/auth"
	"getgsa/onboarding/pkg/server"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/store/retention"
	"getgsa/onboarding/pkg/telemetry/metrics"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the onboarding API server",
	Long: `Start the onboarding API server with the specified configuration.

The server accepts document batches, runs the compliance analysis and serves
stored results. When configured it also prunes old requests on a schedule and
reloads the rule pack when its file or repository changes.

Examples:
  # Start with defaults and environment overrides
  getgsa run

  # Start with a config file
  getgsa run --config /etc/getgsa/config.yaml

  # Override listen address
  getgsa run --listen 0.0.0.0:8000

  # Validate config and rule pack without starting the server
  getgsa run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and rule pack without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "getgsa v%s\n", Version)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	registry, reloader, err := loadRules(ctx, cfg.Rules, collector, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Rule pack %s loaded (%d rules)\n", registry.Current().Version, len(registry.Current().Rules))

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer st.Close()
	fmt.Fprintf(out, "✓ Storage ready (%s)\n", cfg.Storage.Backend)

	svc, collaborators, err := newService(cfg, st, registry, collector, tracer, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer collaborators.Close()

	var tokens *auth.TokenManager
	if cfg.Security.Auth.Enabled {
		tokens, err = auth.NewTokenManager(cfg.Security.SecretKey, cfg.Security.Auth)
		if err != nil {
			return cli.NewConfigError("security.auth", err.Error())
		}
	}

	if cfg.Storage.Retention.Days > 0 {
		scheduler := retention.NewScheduler(retention.NewPruner(st, cfg.Storage.Retention, collector))
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewConfigError("storage.retention.prune_schedule", err.Error())
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			logger.Debug("Retention scheduler started", "next_run", next)
		}
	}

	if reloader.Watchable() {
		go func() {
			if err := reloader.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Rule pack watcher stopped", "error", err)
			}
		}()
	}

	srv, err := server.NewServer(server.Options{
		Config:    cfg,
		Analyzer:  svc,
		Store:     st,
		Registry:  registry,
		Tokens:    tokens,
		Metrics:   collector,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		Logger:    logger,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// newService wires the analysis pipeline from cfg. The returned
// collaborators must be closed by the caller.
func newService(cfg *config.Config, st store.Store, registry *rules.Registry, collector *metrics.Collector, tracer *tracing.Tracer, logger *slog.Logger) (*analysis.Service, *extraction.Collaborators, error) {
	collaborators, err := extraction.New(cfg.Assistant, extraction.Options{
		Logger:  logger.With("component", "extraction"),
		Metrics: collector,
		Tracer:  tracer,
		Timeout: cfg.Assistant.Provider.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	svc, err := analysis.New(analysis.Options{
		Store:     st,
		Registry:  registry,
		Redactor:  redact.New(cfg.Security.SecretKey),
		Extractor: collaborators.Extractor,
		Renderer:  collaborators.Renderer,
		Limits:    cfg.Limits,
		Threshold: cfg.Rules.AbstainThreshold,
		Metrics:   collector,
		Tracer:    tracer,
		Logger:    logger,
	})
	if err != nil {
		collaborators.Close()
		return nil, nil, err
	}
	return svc, collaborators, nil
}
