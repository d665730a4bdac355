package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/compliance/rules"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

type versionInfo struct {
	Version     string `json:"version"`
	GitCommit   string `json:"git_commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
	PackVersion string `json:"builtin_rule_pack"`
}

func (v versionInfo) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "getgsa %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s\nBuilt-in Rule Pack: %s\n",
		v.Version, v.GitCommit, v.BuildDate, v.GoVersion, v.Platform, v.PackVersion)
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit, build date and the built-in rule pack version.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResult(cmd, versionInfo{
			Version:     Version,
			GitCommit:   GitCommit,
			BuildDate:   BuildDate,
			GoVersion:   runtime.Version(),
			Platform:    runtime.GOOS + "/" + runtime.GOARCH,
			PackVersion: rules.DefaultPackVersion,
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
