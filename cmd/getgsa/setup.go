package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/compliance/rules/source"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/telemetry/logging"
	"getgsa/onboarding/pkg/telemetry/metrics"
)

// loadConfig reads --config with environment overrides and installs the
// result as the process-wide configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// setupLogging installs the configured logger. Logs go to stderr so command
// output on stdout stays machine-readable; --verbose forces debug level.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	level := lc.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.Setup(logging.Config{
		Level:          level,
		Format:         lc.Format,
		AddSource:      lc.AddSource,
		RedactPII:      lc.RedactPII,
		RedactPatterns: lc.RedactPatterns,
		Writer:         os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// loadRules builds the configured rule source and loads the first pack.
// The returned reloader can follow later changes.
func loadRules(ctx context.Context, cfg config.RulesConfig, collector *metrics.Collector, logger *slog.Logger) (*rules.Registry, *source.Reloader, error) {
	src, err := source.New(cfg, logger)
	if err != nil {
		return nil, nil, cli.NewConfigError("rules", err.Error())
	}

	registry := rules.NewRegistry(nil)
	reloader := source.NewReloader(src, registry, logger)
	reloader.OnReload = collector.RecordPackReload
	if err := reloader.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load rule pack from %s: %w", src.Name(), err)
	}
	return registry, reloader, nil
}

// printResult writes v to the command output in the --output format.
func printResult(cmd *cobra.Command, v any) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(outputFormat))
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), v)
}
