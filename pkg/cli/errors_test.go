package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{"with field", NewConfigError("security.secret_key", "is required"), "config error in security.secret_key: is required"},
		{"without field", NewConfigError("", "failed to load config"), "config error: failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := errors.New("storage unavailable")
	err := NewCommandError("requests export", underlying)

	if err.Error() != "command requests export failed: storage unavailable" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through CommandError")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"config", NewConfigError("rules.source", "unknown"), ExitConfig},
		{"wrapped config", fmt.Errorf("startup: %w", NewConfigError("", "bad")), ExitConfig},
		{"problems", NewCommandError("analyze", ErrProblemsFound), ExitProblems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
