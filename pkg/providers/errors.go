package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError is a non-2xx answer other than the authentication and rate
// limit cases, or a transport failure (StatusCode 0).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AuthError is returned when the provider rejects the API key (401 or 403).
// It is never retried; the extractor falls back immediately.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError is an HTTP 429. RetryAfter is zero when the provider sent no
// Retry-After header.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("provider %q rate limit exceeded", e.Provider)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg + ": " + e.Message
}

// TimeoutError is returned when one attempt exceeds the configured timeout.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError means the provider answered but the body could not be decoded
// into a completion. RawResponse is kept for debug logging only.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError rejects a completion request before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// ConfigError reports an unusable assistant.provider setting.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s", e.Provider, e.Field, e.Message)
}

// Error types reported by ErrorType, used as the "type" metric label.
const (
	ErrorTypeAuth       = "auth"
	ErrorTypeRateLimit  = "rate_limit"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
	ErrorTypeConfig     = "config"
	ErrorTypeProvider   = "provider"
	ErrorTypeCanceled   = "canceled"
	ErrorTypeUnknown    = "unknown"
)

// ErrorType classifies err for metrics and logs.
func ErrorType(err error) string {
	var (
		authErr   *AuthError
		rateErr   *RateLimitError
		timeout   *TimeoutError
		parseErr  *ParseError
		validErr  *ValidationError
		configErr *ConfigError
		provErr   *ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return ErrorTypeAuth
	case errors.As(err, &rateErr):
		return ErrorTypeRateLimit
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.As(err, &parseErr):
		return ErrorTypeParse
	case errors.As(err, &validErr):
		return ErrorTypeValidation
	case errors.As(err, &configErr):
		return ErrorTypeConfig
	case errors.As(err, &provErr):
		return ErrorTypeProvider
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether a later attempt could succeed: server errors,
// transport failures, timeouts and rate limits.
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode == 0 || provErr.StatusCode >= 500
	}
	switch ErrorType(err) {
	case ErrorTypeRateLimit, ErrorTypeTimeout:
		return true
	}
	return false
}
