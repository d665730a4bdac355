package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default and fills remaining zero values.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GETGSA_SECTION_FIELD (e.g., GETGSA_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults, so the service
// can be configured from the environment alone.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format GETGSA_SECTION_FIELD. The unprefixed
// names used by earlier deployments (OPENAI_API_KEY, DATABASE_URL,
// SECRET_KEY, LOG_LEVEL) are honoured too; the prefixed form wins.
func applyEnvOverrides(cfg *Config) {
	// Unprefixed names first so GETGSA_* can override them.
	envString("SECRET_KEY", &cfg.Security.SecretKey)
	envString("OPENAI_API_KEY", &cfg.Assistant.Provider.APIKey)
	envString("LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	if val := os.Getenv("DATABASE_URL"); val != "" {
		cfg.Storage.DSN = val
		cfg.Storage.Backend = "postgres"
	}

	// Server overrides
	envString("GETGSA_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("GETGSA_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("GETGSA_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("GETGSA_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envBool("GETGSA_SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Limits overrides
	envInt("GETGSA_LIMITS_MAX_DOCUMENT_SIZE_MB", &cfg.Limits.MaxDocumentSizeMB)
	envInt("GETGSA_LIMITS_MAX_DOCUMENTS_PER_REQUEST", &cfg.Limits.MaxDocumentsPerRequest)
	envInt("GETGSA_LIMITS_RATE_LIMIT_PER_MINUTE", &cfg.Limits.RateLimitPerMinute)

	// Security overrides
	envString("GETGSA_SECURITY_SECRET_KEY", &cfg.Security.SecretKey)
	envBool("GETGSA_SECURITY_AUTH_ENABLED", &cfg.Security.Auth.Enabled)
	envString("GETGSA_SECURITY_AUTH_ISSUER", &cfg.Security.Auth.Issuer)
	envDuration("GETGSA_SECURITY_AUTH_TOKEN_TTL", &cfg.Security.Auth.TokenTTL)

	// Storage overrides
	envString("GETGSA_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("GETGSA_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("GETGSA_STORAGE_PATH", &cfg.Storage.Path)
	envString("GETGSA_STORAGE_DSN", &cfg.Storage.DSN)
	envInt("GETGSA_STORAGE_RETENTION_DAYS", &cfg.Storage.Retention.Days)
	envString("GETGSA_STORAGE_RETENTION_PRUNE_SCHEDULE", &cfg.Storage.Retention.PruneSchedule)
	envString("GETGSA_STORAGE_RETENTION_ARCHIVE_PATH", &cfg.Storage.Retention.ArchivePath)

	// Rules overrides
	envString("GETGSA_RULES_SOURCE", &cfg.Rules.Source)
	envString("GETGSA_RULES_FILE_PATH", &cfg.Rules.FilePath)
	envBool("GETGSA_RULES_WATCH", &cfg.Rules.Watch)
	envString("GETGSA_RULES_GIT_REPOSITORY", &cfg.Rules.Git.Repository)
	envString("GETGSA_RULES_GIT_BRANCH", &cfg.Rules.Git.Branch)
	envString("GETGSA_RULES_GIT_PATH", &cfg.Rules.Git.Path)
	envString("GETGSA_RULES_GIT_TOKEN", &cfg.Rules.Git.Token)
	envFloat("GETGSA_RULES_ABSTAIN_THRESHOLD", &cfg.Rules.AbstainThreshold)

	// Assistant overrides
	envString("GETGSA_ASSISTANT_EXTRACTOR", &cfg.Assistant.Extractor)
	envString("GETGSA_ASSISTANT_PROSE", &cfg.Assistant.Prose)
	envBool("GETGSA_ASSISTANT_FALLBACK", &cfg.Assistant.Fallback)
	envString("GETGSA_ASSISTANT_PROVIDER_BASE_URL", &cfg.Assistant.Provider.BaseURL)
	envString("GETGSA_ASSISTANT_PROVIDER_API_KEY", &cfg.Assistant.Provider.APIKey)
	envString("GETGSA_ASSISTANT_PROVIDER_MODEL", &cfg.Assistant.Provider.Model)
	envDuration("GETGSA_ASSISTANT_PROVIDER_TIMEOUT", &cfg.Assistant.Provider.Timeout)
	envInt("GETGSA_ASSISTANT_PROVIDER_MAX_RETRIES", &cfg.Assistant.Provider.MaxRetries)

	// Telemetry overrides
	envString("GETGSA_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("GETGSA_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("GETGSA_TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("GETGSA_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("GETGSA_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("GETGSA_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("GETGSA_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("GETGSA_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("GETGSA_TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// envInt and the other typed helpers ignore unparseable values and keep
// the configured one.
func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
