package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"getgsa/onboarding/pkg/telemetry/tracing"
)

// maxErrorBody bounds how much of an error response is kept in errors.
const maxErrorBody = 4096

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, retry logic, timeout handling, and health
// tracking. Adapters embed it and add Complete.
type HTTPProvider struct {
	config ProviderConfig
	client *http.Client
	logger *slog.Logger

	// probe is the adapter's health check, run by StartHealthChecker.
	probe func(ctx context.Context) error

	healthMu sync.RWMutex
	health   ProviderHealth

	stopOnce           sync.Once
	stopHealthCheck    chan struct{}
	healthCheckStopped chan struct{}
	checkerStarted     bool
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	config = config.withDefaults()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "provider", "provider", config.Name),
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}
}

// SetProbe installs the health check used by StartHealthChecker.
func (p *HTTPProvider) SetProbe(probe func(ctx context.Context) error) {
	p.probe = probe
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// Config returns the provider's configuration with defaults applied.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// updateHealth records the outcome of a request or health check. Three
// consecutive failures mark the provider unhealthy; one success clears it.
func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()
	if success {
		if !p.health.IsHealthy {
			p.logger.Info("provider marked healthy",
				"previous_failures", p.health.ConsecutiveFailures)
		}
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		return
	}

	p.health.ConsecutiveFailures++
	p.health.LastError = err
	if p.health.ConsecutiveFailures >= 3 && p.health.IsHealthy {
		p.health.IsHealthy = false
		p.logger.Warn("provider marked unhealthy",
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// recordAttempt counts one HTTP attempt.
func (p *HTTPProvider) recordAttempt(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}

// backoff returns the wait before retry number attempt (1-based).
func (p *HTTPProvider) backoff(attempt int) time.Duration {
	d := p.config.InitialBackoff << (attempt - 1)
	if d <= 0 || d > p.config.MaxBackoff {
		d = p.config.MaxBackoff
	}
	return d
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// Server errors, transport failures and rate limits are retried with
// exponential backoff; a Retry-After longer than MaxBackoff ends the retries.
// Authentication and other client errors are returned at once.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := p.backoff(attempt)
			var rateErr *RateLimitError
			if errors.As(lastErr, &rateErr) && rateErr.RetryAfter > 0 {
				if rateErr.RetryAfter > p.config.MaxBackoff {
					break
				}
				wait = rateErr.RetryAfter
			}
			p.logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", wait,
			)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := p.attempt(ctx, method, url, body, headers)
		if err == nil {
			p.recordAttempt(true)
			p.updateHealth(true, nil)
			return resp, nil
		}
		p.recordAttempt(false)
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err) {
			if ErrorType(err) == ErrorTypeAuth {
				p.updateHealth(false, err)
			}
			return nil, err
		}

		p.logger.Warn("request failed, will retry",
			"attempt", attempt+1,
			"error", err,
		)
	}

	p.updateHealth(false, lastErr)
	return nil, lastErr
}

// attempt sends one request and maps failure statuses to typed errors.
func (p *HTTPProvider) attempt(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &ConfigError{Provider: p.config.Name, Field: "base_url", Message: err.Error()}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.config.APIKey != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}
	tracing.Inject(ctx, req.Header)

	p.logger.Debug("sending request to provider", "method", method, "url", url)

	resp, err := p.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		}
		return nil, &ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{Provider: p.config.Name, Message: string(errorBody)}
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(errorBody),
		}
	default:
		return nil, &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}
	}
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody any, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: truncate(string(responseBytes), maxErrorBody),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close stops the health checker, if running, and closes idle connections.
func (p *HTTPProvider) Close() error {
	p.stopOnce.Do(func() {
		close(p.stopHealthCheck)
		if p.checkerStarted {
			select {
			case <-p.healthCheckStopped:
			case <-time.After(5 * time.Second):
				p.logger.Warn("health checker did not stop in time")
			}
		}
		p.client.CloseIdleConnections()
		p.logger.Debug("provider closed")
	})
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
