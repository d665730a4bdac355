package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "getgsa",
	Short: "GSA onboarding compliance service",
	Long: `getgsa checks GSA Multiple Award Schedule onboarding documents against a
versioned compliance rule pack.

Documents are redacted before anything else sees them. Extracted facts that
fall below the confidence threshold are abstained on instead of guessed, so
every problem reported to an applicant is one the engine is sure about.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults and environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml, csv)")
}
