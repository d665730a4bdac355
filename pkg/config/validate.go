package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateAssistant(&cfg.Assistant)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 || cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be between 0 and 10MB",
		})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.max_age",
			Message: "max age must be non-negative",
		})
	}

	return errs
}

// validateLimits validates ingest limits.
func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxDocumentSizeMB <= 0 || cfg.MaxDocumentSizeMB > 100 {
		errs = append(errs, FieldError{
			Field:   "limits.max_document_size_mb",
			Message: "max document size must be between 1 and 100 MB",
		})
	}
	if cfg.MaxDocumentsPerRequest <= 0 || cfg.MaxDocumentsPerRequest > 1000 {
		errs = append(errs, FieldError{
			Field:   "limits.max_documents_per_request",
			Message: "max documents per request must be between 1 and 1000",
		})
	}
	if cfg.RateLimitPerMinute < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.rate_limit_per_minute",
			Message: "rate limit must be non-negative (0 disables it)",
		})
	}

	return errs
}

// validateSecurity validates the secret and authentication settings.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if !cfg.Auth.Enabled {
		return errs
	}
	if cfg.SecretKey == "" {
		errs = append(errs, FieldError{
			Field:   "security.secret_key",
			Message: "secret key is required when authentication is enabled",
		})
	} else if len(cfg.SecretKey) < 32 {
		errs = append(errs, FieldError{
			Field:   "security.secret_key",
			Message: "secret key must be at least 32 bytes when authentication is enabled",
		})
	}
	if cfg.Auth.Algorithm != "HS256" {
		errs = append(errs, FieldError{
			Field:   "security.auth.algorithm",
			Message: fmt.Sprintf("unsupported algorithm %q: only 'HS256' is supported", cfg.Auth.Algorithm),
		})
	}
	if cfg.Auth.TokenTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "security.auth.token_ttl",
			Message: "token TTL must be positive",
		})
	}

	return errs
}

// validateStorage validates request store configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "storage.driver",
				Message: fmt.Sprintf("invalid sqlite driver %q: must be 'sqlite' or 'sqlite3'", cfg.Driver),
			})
		}
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.path",
				Message: "path is required for the sqlite backend",
			})
		}
	case "postgres":
		if cfg.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "storage.dsn",
				Message: "DSN is required for the postgres backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', or 'postgres'", cfg.Backend),
		})
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.max_open_conns",
			Message: "max open connections must be non-negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.days",
			Message: "retention days must be non-negative (0 keeps requests forever)",
		})
	}
	if cfg.Retention.Days > 0 {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "storage.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateRules validates rule pack source configuration.
func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "builtin":
	case "file":
		if cfg.FilePath == "" {
			errs = append(errs, FieldError{
				Field:   "rules.file_path",
				Message: "file path is required for the file source",
			})
		}
	case "git":
		if cfg.Git.Repository == "" {
			errs = append(errs, FieldError{
				Field:   "rules.git.repository",
				Message: "repository is required for the git source",
			})
		}
		if cfg.Git.PollInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "rules.git.poll_interval",
				Message: "poll interval must be positive",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rules.source",
			Message: fmt.Sprintf("invalid source %q: must be 'builtin', 'file', or 'git'", cfg.Source),
		})
	}

	if cfg.AbstainThreshold < 0 || cfg.AbstainThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "rules.abstain_threshold",
			Message: "abstain threshold must be between 0.0 and 1.0",
		})
	}

	return errs
}

// validateAssistant validates the AI collaborator configuration.
func validateAssistant(cfg *AssistantConfig) []FieldError {
	var errs []FieldError

	if cfg.Extractor != "pattern" && cfg.Extractor != "llm" {
		errs = append(errs, FieldError{
			Field:   "assistant.extractor",
			Message: fmt.Sprintf("invalid extractor %q: must be 'pattern' or 'llm'", cfg.Extractor),
		})
	}
	if cfg.Prose != "template" && cfg.Prose != "llm" {
		errs = append(errs, FieldError{
			Field:   "assistant.prose",
			Message: fmt.Sprintf("invalid prose renderer %q: must be 'template' or 'llm'", cfg.Prose),
		})
	}
	if !cfg.UsesLLM() {
		return errs
	}

	p := cfg.Provider
	if p.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.base_url",
			Message: fmt.Sprintf("invalid URL %q", p.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.base_url",
			Message: fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme),
		})
	}
	if p.APIKey == "" && !cfg.Fallback {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.api_key",
			Message: "API key is required when fallback is disabled",
		})
	}
	if p.Model == "" {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.model",
			Message: "model is required",
		})
	}
	if p.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.timeout",
			Message: "timeout must be positive",
		})
	}
	if p.MaxRetries < 0 || p.MaxRetries > 10 {
		errs = append(errs, FieldError{
			Field:   "assistant.provider.max_retries",
			Message: "max retries must be between 0 and 10",
		})
	}

	return errs
}

// validateTelemetry validates logging, metrics and tracing configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}
	if f := cfg.Logging.Format; f != "json" && f != "text" && f != "console" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
