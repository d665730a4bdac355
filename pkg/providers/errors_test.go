package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      string
		retryable bool
	}{
		{name: "nil", err: nil, want: ""},
		{name: "auth", err: &AuthError{Provider: "openai", Message: "bad key"}, want: ErrorTypeAuth},
		{name: "rate limit", err: &RateLimitError{Provider: "openai"}, want: ErrorTypeRateLimit, retryable: true},
		{name: "timeout", err: &TimeoutError{Provider: "openai", Timeout: time.Second}, want: ErrorTypeTimeout, retryable: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: ErrorTypeTimeout, retryable: true},
		{name: "canceled", err: context.Canceled, want: ErrorTypeCanceled},
		{name: "parse", err: &ParseError{Provider: "openai", Cause: errors.New("eof")}, want: ErrorTypeParse},
		{name: "validation", err: &ValidationError{Field: "messages", Message: "empty"}, want: ErrorTypeValidation},
		{name: "config", err: &ConfigError{Provider: "openai", Field: "base_url"}, want: ErrorTypeConfig},
		{name: "server error", err: &ProviderError{Provider: "openai", StatusCode: 502}, want: ErrorTypeProvider, retryable: true},
		{name: "client error", err: &ProviderError{Provider: "openai", StatusCode: 400}, want: ErrorTypeProvider},
		{name: "transport", err: &ProviderError{Provider: "openai", Cause: errors.New("reset")}, want: ErrorTypeProvider, retryable: true},
		{name: "wrapped", err: fmt.Errorf("extract: %w", &AuthError{Provider: "openai"}), want: ErrorTypeAuth},
		{name: "other", err: errors.New("boom"), want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(tt.err); got != tt.want {
				t.Errorf("ErrorType() = %q, want %q", got, tt.want)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ProviderError{Provider: "openai", StatusCode: 500, Message: "down"}, `provider "openai" error (status 500): down`},
		{&RateLimitError{Provider: "openai", RetryAfter: 2 * time.Second, Message: "slow"}, "retry after 2s"},
		{&TimeoutError{Provider: "openai", Timeout: time.Minute}, "timeout after 1m0s"},
		{&ConfigError{Provider: "openai", Field: "base_url", Message: "required"}, `field "base_url"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); !strings.Contains(got, tt.want) {
			t.Errorf("Error() = %q, want it to contain %q", got, tt.want)
		}
	}

	cause := errors.New("eof")
	if !errors.Is(&ParseError{Cause: cause}, cause) {
		t.Error("ParseError does not unwrap its cause")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty header = %v", got)
	}
	if got := parseRetryAfter("7"); got != 7*time.Second {
		t.Errorf("seconds header = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("garbage header = %v", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 59*time.Minute {
		t.Errorf("date header = %v", got)
	}
}

func TestBackoff(t *testing.T) {
	p := NewHTTPProvider(ProviderConfig{Name: "x", InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second})
	defer p.Close()

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 30 * time.Second
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, base},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{10, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.failures, base); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestUpdateHealth(t *testing.T) {
	p := NewHTTPProvider(ProviderConfig{Name: "x"})
	defer p.Close()

	for i := 0; i < 2; i++ {
		p.updateHealth(false, errors.New("down"))
	}
	if !p.IsHealthy() {
		t.Fatal("two failures should not mark the provider unhealthy")
	}
	p.updateHealth(false, errors.New("down"))
	if p.IsHealthy() {
		t.Fatal("three failures should mark the provider unhealthy")
	}
	p.updateHealth(true, nil)
	if h := p.GetHealth(); !h.IsHealthy || h.ConsecutiveFailures != 0 || h.LastError != nil {
		t.Errorf("success did not restore health: %+v", h)
	}
}
