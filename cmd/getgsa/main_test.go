package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/store"
)

const profileText = `Acme Federal Solutions LLC
UEI: ABCD1234EFGH
DUNS: 123456789
SAM Status: Active
NAICS: 541511, 541512
POC: jane.doe@acme.example, (555) 123-4567`

const pricingText = `Labor Category: Senior Software Engineer | Rate: $125/hr | Hours: 200
Labor Category: Project Manager | Rate: $110.00/hr | Hours: 100
Total Project Value: $36,000`

// resetFlags restores every flag variable to its default. Cobra only
// assigns flags that appear on the command line, so values would otherwise
// leak between runs.
func resetFlags() {
	cfgFile = ""
	verbose = false
	outputFormat = "text"

	analyzeFlags.rulesFile = ""
	analyzeFlags.threshold = 0
	analyzeFlags.persist = false
	analyzeFlags.failOnProblems = false

	requestsFlags.status = ""
	requestsFlags.since = ""
	requestsFlags.until = ""
	requestsFlags.limit = store.DefaultLimit
	requestsFlags.format = "json"
	requestsFlags.out = ""
	requestsFlags.pageSize = store.DefaultLimit
	requestsFlags.days = 0
	requestsFlags.before = ""
	requestsFlags.dryRun = false

	tokenTTL = 0

	runFlags.listenAddress = ""
	runFlags.logLevel = ""
	runFlags.dryRun = false
}

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// isolate points storage at a fresh SQLite file so tests never touch a
// real database, and returns the temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"DATABASE_URL", "SECRET_KEY", "GETGSA_SECURITY_SECRET_KEY", "GETGSA_RULES_SOURCE"} {
		t.Setenv(key, "")
	}
	t.Setenv("GETGSA_STORAGE_BACKEND", "sqlite")
	t.Setenv("GETGSA_STORAGE_PATH", filepath.Join(dir, "getgsa.db"))
	t.Setenv("GETGSA_TELEMETRY_LOGGING_LEVEL", "error")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "getgsa "+Version)
	assert.Contains(t, out, "Built-in Rule Pack:")

	out, err = execute(t, "version", "-o", "json")
	require.NoError(t, err)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.PackVersion)
}

func TestUnknownOutputFormat(t *testing.T) {
	isolate(t)

	_, err := execute(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "getgsa")
		})
	}

	_, err := execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "analyze", "rules", "requests", "token", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, cli.ExitConfig, cli.ExitCode(cli.NewConfigError("--threshold", "bad")))
	assert.Equal(t, cli.ExitProblems, cli.ExitCode(cli.NewCommandError("analyze", cli.ErrProblemsFound)))
}
