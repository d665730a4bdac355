package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		errorField string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:       "empty listen address",
			modify:     func(c *Config) { c.Server.ListenAddress = "" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative read timeout",
			modify:     func(c *Config) { c.Server.ReadTimeout = -time.Second },
			errorField: "server.read_timeout",
		},
		{
			name:       "excessive max header bytes",
			modify:     func(c *Config) { c.Server.MaxHeaderBytes = 20 * 1024 * 1024 },
			errorField: "server.max_header_bytes",
		},
		{
			name:       "zero document size",
			modify:     func(c *Config) { c.Limits.MaxDocumentSizeMB = 0 },
			errorField: "limits.max_document_size_mb",
		},
		{
			name:       "too many documents",
			modify:     func(c *Config) { c.Limits.MaxDocumentsPerRequest = 5000 },
			errorField: "limits.max_documents_per_request",
		},
		{
			name:       "negative rate limit",
			modify:     func(c *Config) { c.Limits.RateLimitPerMinute = -1 },
			errorField: "limits.rate_limit_per_minute",
		},
		{
			name:   "rate limit disabled",
			modify: func(c *Config) { c.Limits.RateLimitPerMinute = 0 },
		},
		{
			name:       "auth without secret",
			modify:     func(c *Config) { c.Security.Auth.Enabled = true },
			errorField: "security.secret_key",
		},
		{
			name: "auth with short secret",
			modify: func(c *Config) {
				c.Security.Auth.Enabled = true
				c.Security.SecretKey = "short"
			},
			errorField: "security.secret_key",
		},
		{
			name: "auth with unsupported algorithm",
			modify: func(c *Config) {
				c.Security.Auth.Enabled = true
				c.Security.SecretKey = strings.Repeat("k", 32)
				c.Security.Auth.Algorithm = "RS256"
			},
			errorField: "security.auth.algorithm",
		},
		{
			name: "auth valid",
			modify: func(c *Config) {
				c.Security.Auth.Enabled = true
				c.Security.SecretKey = strings.Repeat("k", 32)
			},
		},
		{
			name:       "unknown backend",
			modify:     func(c *Config) { c.Storage.Backend = "mongo" },
			errorField: "storage.backend",
		},
		{
			name:       "unknown sqlite driver",
			modify:     func(c *Config) { c.Storage.Driver = "sqlite4" },
			errorField: "storage.driver",
		},
		{
			name:       "postgres without dsn",
			modify:     func(c *Config) { c.Storage.Backend = "postgres" },
			errorField: "storage.dsn",
		},
		{
			name:       "bad prune schedule",
			modify:     func(c *Config) { c.Storage.Retention.PruneSchedule = "every day" },
			errorField: "storage.retention.prune_schedule",
		},
		{
			name: "schedule ignored when retention is off",
			modify: func(c *Config) {
				c.Storage.Retention.Days = 0
				c.Storage.Retention.PruneSchedule = "every day"
			},
		},
		{
			name:       "file source without path",
			modify:     func(c *Config) { c.Rules.Source = "file" },
			errorField: "rules.file_path",
		},
		{
			name:       "git source without repository",
			modify:     func(c *Config) { c.Rules.Source = "git" },
			errorField: "rules.git.repository",
		},
		{
			name:       "unknown rules source",
			modify:     func(c *Config) { c.Rules.Source = "s3" },
			errorField: "rules.source",
		},
		{
			name:       "threshold above one",
			modify:     func(c *Config) { c.Rules.AbstainThreshold = 1.5 },
			errorField: "rules.abstain_threshold",
		},
		{
			name:       "unknown extractor",
			modify:     func(c *Config) { c.Assistant.Extractor = "magic" },
			errorField: "assistant.extractor",
		},
		{
			name:       "unknown prose renderer",
			modify:     func(c *Config) { c.Assistant.Prose = "poem" },
			errorField: "assistant.prose",
		},
		{
			name: "llm without key and without fallback",
			modify: func(c *Config) {
				c.Assistant.Extractor = "llm"
				c.Assistant.Fallback = false
			},
			errorField: "assistant.provider.api_key",
		},
		{
			name:   "llm without key falls back",
			modify: func(c *Config) { c.Assistant.Extractor = "llm" },
		},
		{
			name: "llm with bad url",
			modify: func(c *Config) {
				c.Assistant.Prose = "llm"
				c.Assistant.Provider.BaseURL = "ftp://example.com"
			},
			errorField: "assistant.provider.base_url",
		},
		{
			name: "llm with too many retries",
			modify: func(c *Config) {
				c.Assistant.Prose = "llm"
				c.Assistant.Provider.MaxRetries = 50
			},
			errorField: "assistant.provider.max_retries",
		},
		{
			name:       "bad logging level",
			modify:     func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			errorField: "telemetry.logging.level",
		},
		{
			name:       "bad logging format",
			modify:     func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			errorField: "telemetry.logging.format",
		},
		{
			name: "bad redact pattern",
			modify: func(c *Config) {
				c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x", Pattern: "[unclosed"}}
			},
			errorField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name:       "metrics path without slash",
			modify:     func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			errorField: "telemetry.metrics.path",
		},
		{
			name: "tracing without endpoint",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "unknown sampler",
			modify:     func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			errorField: "telemetry.tracing.sampler",
		},
		{
			name:       "sample ratio out of range",
			modify:     func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 },
			errorField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := Validate(cfg)

			if tt.errorField == "" {
				if err != nil {
					t.Fatalf("expected no validation error, got: %v", err)
				}
				return
			}

			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.errorField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got errors: %v", tt.errorField, vErr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := one.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", got)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := two.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "b: worse") {
		t.Errorf("unexpected message %q", got)
	}
}
