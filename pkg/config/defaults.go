package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultCORSMaxAge      = 3600

	// Limits defaults
	DefaultMaxDocumentSizeMB      = 2
	DefaultMaxDocumentsPerRequest = 20
	DefaultRateLimitPerMinute     = 60

	// Security defaults
	DefaultAuthAlgorithm = "HS256"
	DefaultAuthIssuer    = "getgsa"
	DefaultTokenTTL      = 30 * time.Minute

	// Storage defaults
	DefaultStorageBackend      = "sqlite"
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/getgsa.db"
	DefaultStorageMaxOpenConns = 10
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultRetentionDays       = 90
	DefaultRetentionSchedule   = "0 3 * * *"

	// Rules defaults
	DefaultRulesSource     = "builtin"
	DefaultRulesGitBranch  = "main"
	DefaultRulesGitPath    = "rulepack.yaml"
	DefaultRulesGitLocal   = "data/rules"
	DefaultRulesGitPoll    = 5 * time.Minute
	DefaultRulesGitTimeout = 30 * time.Second

	// Assistant defaults
	DefaultAssistantExtractor = "pattern"
	DefaultAssistantProse     = "template"

	// Provider defaults
	DefaultProviderName       = "openai"
	DefaultProviderBaseURL    = "https://api.openai.com/v1"
	DefaultProviderModel      = "gpt-4o-mini"
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "getgsa"
	DefaultMetricsSubsystem   = "onboarding"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "getgsa-api"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
)

// Default returns a configuration with every default applied, including the
// boolean switches that default to true and the limits where zero means
// "off". LoadConfig decodes YAML on top of it, so an explicit false or 0 in
// the file is kept.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = true
	cfg.Assistant.Fallback = true
	cfg.Telemetry.Logging.RedactPII = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true
	cfg.Storage.Retention.Days = DefaultRetentionDays
	cfg.Limits.RateLimitPerMinute = DefaultRateLimitPerMinute
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	applyCORSDefaults(&cfg.Server.CORS)

	// Limits defaults
	if cfg.Limits.MaxDocumentSizeMB == 0 {
		cfg.Limits.MaxDocumentSizeMB = DefaultMaxDocumentSizeMB
	}
	if cfg.Limits.MaxDocumentsPerRequest == 0 {
		cfg.Limits.MaxDocumentsPerRequest = DefaultMaxDocumentsPerRequest
	}

	// Security defaults
	if cfg.Security.Auth.Algorithm == "" {
		cfg.Security.Auth.Algorithm = DefaultAuthAlgorithm
	}
	if cfg.Security.Auth.Issuer == "" {
		cfg.Security.Auth.Issuer = DefaultAuthIssuer
	}
	if cfg.Security.Auth.TokenTTL == 0 {
		cfg.Security.Auth.TokenTTL = DefaultTokenTTL
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.Retention.PruneSchedule == "" {
		cfg.Storage.Retention.PruneSchedule = DefaultRetentionSchedule
	}

	// Rules defaults
	if cfg.Rules.Source == "" {
		cfg.Rules.Source = DefaultRulesSource
	}
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultRulesGitBranch
	}
	if cfg.Rules.Git.Path == "" {
		cfg.Rules.Git.Path = DefaultRulesGitPath
	}
	if cfg.Rules.Git.LocalPath == "" {
		cfg.Rules.Git.LocalPath = DefaultRulesGitLocal
	}
	if cfg.Rules.Git.PollInterval == 0 {
		cfg.Rules.Git.PollInterval = DefaultRulesGitPoll
	}
	if cfg.Rules.Git.Timeout == 0 {
		cfg.Rules.Git.Timeout = DefaultRulesGitTimeout
	}

	// Assistant defaults
	if cfg.Assistant.Extractor == "" {
		cfg.Assistant.Extractor = DefaultAssistantExtractor
	}
	if cfg.Assistant.Prose == "" {
		cfg.Assistant.Prose = DefaultAssistantProse
	}
	p := &cfg.Assistant.Provider
	if p.Name == "" {
		p.Name = DefaultProviderName
	}
	if p.BaseURL == "" {
		p.BaseURL = DefaultProviderBaseURL
	}
	if p.Model == "" {
		p.Model = DefaultProviderModel
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultProviderMaxRetries
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
