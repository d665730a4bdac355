package providers

import "context"

// Provider is a chat completion endpoint used by the assistant
// collaborators (LLM extraction and prose).
//
// All methods accept a context.Context for cancellation and timeout control.
//
// Example usage:
//
//	p, err := openai.NewProvider(providers.FromConfig(cfg.Assistant.Provider))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	resp, err := p.Complete(ctx, &providers.CompletionRequest{
//	    Messages: []providers.Message{
//	        {Role: providers.RoleSystem, Content: "Return JSON."},
//	        {Role: providers.RoleUser, Content: redactedText},
//	    },
//	    JSON: true,
//	})
type Provider interface {
	// Complete sends a completion request and returns the normalized
	// response. Transient failures are retried with exponential backoff.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// HealthCheck sends a lightweight request to verify the provider is
	// reachable and accepts the credentials.
	HealthCheck(ctx context.Context) error

	// GetName returns the provider's configured name.
	GetName() string

	// IsHealthy returns the current health status of the provider.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases idle connections and stops the health checker.
	Close() error
}
