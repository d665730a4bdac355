package config

import "time"

// Config is the root configuration structure for the onboarding service.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Server ServerConfig `yaml:"server"`

	// Limits bounds what a single caller may submit.
	Limits LimitsConfig `yaml:"limits"`

	// Security contains the signing secret and API authentication settings.
	Security SecurityConfig `yaml:"security"`

	// Storage selects where document requests and results are persisted.
	Storage StorageConfig `yaml:"storage"`

	// Rules selects the compliance rule pack and how it is reloaded.
	Rules RulesConfig `yaml:"rules"`

	// Assistant configures the AI collaborator used for extraction and prose.
	Assistant AssistantConfig `yaml:"assistant"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes. Analysis may call the assistant,
	// so this is longer than ReadTimeout.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests on shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
type CORSConfig struct {
	// Enabled determines whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists origins allowed to call the API. "*" allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists the HTTP methods allowed.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists request headers allowed.
	// Default: ["Content-Type", "Authorization", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is how long (seconds) a preflight response may be cached.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// LimitsConfig bounds ingest size and request rate.
type LimitsConfig struct {
	// MaxDocumentSizeMB is the largest accepted document text.
	// Default: 2
	MaxDocumentSizeMB int `yaml:"max_document_size_mb"`

	// MaxDocumentsPerRequest is the largest accepted batch.
	// Default: 20
	MaxDocumentsPerRequest int `yaml:"max_documents_per_request"`

	// RateLimitPerMinute is the per-client request budget. 0 disables rate
	// limiting.
	// Default: 60
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// MaxDocumentBytes returns MaxDocumentSizeMB in bytes.
func (l LimitsConfig) MaxDocumentBytes() int {
	return l.MaxDocumentSizeMB * 1024 * 1024
}

// SecurityConfig contains the service secret and API authentication.
type SecurityConfig struct {
	// SecretKey keys PII fingerprints and signs API tokens.
	// Env: SECRET_KEY
	SecretKey string `yaml:"secret_key"`

	// Auth configures bearer-token authentication of the API.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures JWT bearer authentication.
type AuthConfig struct {
	// Enabled requires a valid bearer token on /api/v1 routes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Algorithm is the JWT signing algorithm. Only HS256 is supported.
	// Default: "HS256"
	Algorithm string `yaml:"algorithm"`

	// Issuer is written to and required in tokens.
	// Default: "getgsa"
	Issuer string `yaml:"issuer"`

	// TokenTTL is the lifetime of issued tokens.
	// Default: 30m
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// StorageConfig selects the request store.
type StorageConfig struct {
	// Backend is "memory", "sqlite" or "postgres".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver: "sqlite" (pure Go, modernc) or
	// "sqlite3" (cgo, mattn).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "data/getgsa.db"
	Path string `yaml:"path"`

	// DSN is the PostgreSQL connection string.
	// Env: DATABASE_URL
	DSN string `yaml:"dsn"`

	// MaxOpenConns limits open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Retention configures pruning of old requests.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig configures pruning of stored requests.
type RetentionConfig struct {
	// Days is how long requests are kept. 0 keeps them forever.
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchivePath, when set, receives a JSON export of requests before
	// they are pruned.
	ArchivePath string `yaml:"archive_path"`
}

// RulesConfig selects the compliance rule pack.
type RulesConfig struct {
	// Source is "builtin", "file" or "git".
	// Default: "builtin"
	Source string `yaml:"source"`

	// FilePath is the pack file for the file source.
	FilePath string `yaml:"file_path"`

	// Watch reloads the pack when the file or repository changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Git configures the git source.
	Git GitRulesConfig `yaml:"git"`

	// AbstainThreshold overrides the pack threshold when non-zero.
	AbstainThreshold float64 `yaml:"abstain_threshold"`
}

// GitRulesConfig configures a rule pack tracked in git.
type GitRulesConfig struct {
	Repository   string        `yaml:"repository"`
	Branch       string        `yaml:"branch"`
	Path         string        `yaml:"path"`
	LocalPath    string        `yaml:"local_path"`
	Token        string        `yaml:"token"`
	SSHKeyPath   string        `yaml:"ssh_key_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AssistantConfig configures the AI collaborator.
type AssistantConfig struct {
	// Extractor is "pattern" (deterministic) or "llm".
	// Default: "pattern"
	Extractor string `yaml:"extractor"`

	// Prose is "template" (deterministic) or "llm".
	// Default: "template"
	Prose string `yaml:"prose"`

	// Fallback runs the deterministic implementation when the LLM call
	// fails.
	// Default: true
	Fallback bool `yaml:"fallback"`

	// Provider is the OpenAI-compatible endpoint.
	Provider ProviderConfig `yaml:"provider"`
}

// UsesLLM reports whether any assistant role calls the provider.
func (a AssistantConfig) UsesLLM() bool {
	return a.Extractor == "llm" || a.Prose == "llm"
}

// ProviderConfig configures an OpenAI-compatible chat completion endpoint.
type ProviderConfig struct {
	// Name identifies the provider in logs and metrics.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the API base URL.
	// Default: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates the calls.
	// Env: OPENAI_API_KEY
	APIKey string `yaml:"api_key"`

	// Model is the chat model.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Timeout bounds one HTTP call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds file and line to records.
	AddSource bool `yaml:"add_source"`

	// RedactPII passes log values through the PII patterns.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns adds custom log redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom log redaction rule.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the scrape path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "getgsa"
	Namespace string `yaml:"namespace"`

	// Subsystem follows the namespace.
	// Default: "onboarding"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets are histogram buckets in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service.name resource attribute.
	// Default: "getgsa-api"
	ServiceName string `yaml:"service_name"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the ratio sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds exporter calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
