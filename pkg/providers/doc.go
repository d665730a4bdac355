// Package providers defines the chat completion client the assistant
// collaborators use, and the HTTP plumbing shared by its adapters.
//
// # Retries
//
// HTTPProvider.DoRequest retries server errors, transport failures and rate
// limits with exponential backoff (InitialBackoff doubling up to
// MaxBackoff, honouring Retry-After). Authentication failures and other 4xx
// responses are returned immediately.
//
// # Errors
//
// Failures are typed: ProviderError, AuthError, RateLimitError,
// TimeoutError, ParseError, ValidationError and ConfigError. ErrorType maps
// any of them to a short label for metrics; IsRetryable tells whether a
// later attempt could succeed.
//
// # Health
//
// Three consecutive failed requests mark a provider unhealthy and one
// success restores it. StartHealthChecker adds periodic probing.
//
// The OpenAI-compatible adapter lives in the openai subpackage.
package providers
