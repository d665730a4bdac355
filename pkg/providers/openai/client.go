package openai

import (
	"context"
	"net/http"
	"strings"

	"getgsa/onboarding/pkg/providers"
)

// Provider is a client for the OpenAI chat completions API and for servers
// that speak the same protocol (vLLM, Ollama, LM Studio).
type Provider struct {
	*providers.HTTPProvider
}

var _ providers.Provider = (*Provider)(nil)

// NewProvider validates config and returns a client.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required",
		}
	}
	if config.Timeout < 0 || config.MaxRetries < 0 {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "timeout",
			Message:  "timeout and max retries must be non-negative",
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
	p.SetProbe(p.HealthCheck)
	return p, nil
}

// Complete sends a chat completion request.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	cfg := p.Config()
	body, err := transformRequest(req, cfg.Model)
	if err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", body, &resp, nil); err != nil {
		return nil, err
	}
	return transformResponse(&resp, cfg.Name)
}

// HealthCheck lists models, which needs valid credentials but no tokens.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.DoJSONRequest(ctx, http.MethodGet, p.Config().BaseURL+"/models", nil, nil, nil)
}
