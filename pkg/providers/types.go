package providers

import (
	"time"

	"getgsa/onboarding/pkg/config"
)

// Message is one chat message.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	// Model overrides the provider's configured model when set.
	Model string `json:"model,omitempty"`

	// Messages is the conversation, usually one system and one user message.
	Messages []Message `json:"messages"`

	// Temperature controls randomness. Extraction runs at 0.
	Temperature float64 `json:"temperature"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// JSON asks the provider to return a single JSON object.
	JSON bool `json:"json,omitempty"`
}

// CompletionResponse is a normalized completion response.
type CompletionResponse struct {
	// ID is the provider's response identifier
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text content
	Content string `json:"content"`

	// FinishReason indicates why generation stopped (stop, length, content_filter)
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption information
	Usage TokenUsage `json:"usage"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	// IsHealthy indicates whether the provider is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last health check or request
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failures
	ConsecutiveFailures int

	// TotalRequests is the total number of HTTP attempts sent
	TotalRequests int64

	// FailedRequests is the number of failed attempts
	FailedRequests int64
}

// ProviderConfig contains configuration for a single provider instance.
type ProviderConfig struct {
	// Name identifies the provider in logs, errors and metrics.
	Name string

	// BaseURL is the API endpoint base URL, e.g. https://api.openai.com/v1
	BaseURL string

	// APIKey is the bearer token. Local OpenAI-compatible servers may not
	// need one.
	APIKey string

	// Model is the default model.
	Model string

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialBackoff is the wait before the first retry; it doubles on each
	// further retry up to MaxBackoff. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries. Default: 10s.
	MaxBackoff time.Duration

	// HealthCheckInterval is how often StartHealthChecker probes the
	// provider. Default: 30s.
	HealthCheckInterval time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// FromConfig converts the assistant provider section of the service
// configuration.
func FromConfig(cfg config.ProviderConfig) ProviderConfig {
	return ProviderConfig{
		Name:       cfg.Name,
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}
}

// withDefaults fills unset tuning fields.
func (c ProviderConfig) withDefaults() ProviderConfig {
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	return c
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)
