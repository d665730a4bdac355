package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"getgsa/onboarding/pkg/compliance/report"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/extraction"
	"getgsa/onboarding/pkg/redact"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/metrics"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

// DefaultExtractConcurrency bounds the number of documents extracted at once.
const DefaultExtractConcurrency = 4

// Options configures a Service. Store, Registry, Redactor and Extractor are
// required.
type Options struct {
	Store     store.Store
	Registry  *rules.Registry
	Redactor  *redact.Redactor
	Extractor extraction.Extractor

	// Renderer writes the report prose. Default: report.NewTemplateRenderer()
	Renderer report.ProseRenderer

	// Limits bounds ingest batches. Zero values fall back to the defaults.
	Limits config.LimitsConfig

	// Threshold overrides the pack's abstain threshold when positive.
	Threshold float64

	// ExtractConcurrency bounds parallel extraction. Default: 4
	ExtractConcurrency int

	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Logger  *slog.Logger

	// Now is the analysis clock. Default: time.Now
	Now func() time.Time

	// NewID generates request IDs. Default: random UUIDs
	NewID func() string
}

// Service ingests and analyzes onboarding requests. It is safe for
// concurrent use.
type Service struct {
	store       store.Store
	registry    *rules.Registry
	redactor    *redact.Redactor
	extractor   extraction.Extractor
	renderer    report.ProseRenderer
	limits      config.LimitsConfig
	threshold   float64
	concurrency int
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// New creates a service from opts.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("analysis: store is required")
	case opts.Registry == nil:
		return nil, errors.New("analysis: rule registry is required")
	case opts.Redactor == nil:
		return nil, errors.New("analysis: redactor is required")
	case opts.Extractor == nil:
		return nil, errors.New("analysis: extractor is required")
	}

	limits := opts.Limits
	if limits.MaxDocumentsPerRequest <= 0 {
		limits.MaxDocumentsPerRequest = config.DefaultMaxDocumentsPerRequest
	}
	if limits.MaxDocumentSizeMB <= 0 {
		limits.MaxDocumentSizeMB = config.DefaultMaxDocumentSizeMB
	}

	s := &Service{
		store:       opts.Store,
		registry:    opts.Registry,
		redactor:    opts.Redactor,
		extractor:   opts.Extractor,
		renderer:    opts.Renderer,
		limits:      limits,
		threshold:   opts.Threshold,
		concurrency: opts.ExtractConcurrency,
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		logger:      opts.Logger,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if s.renderer == nil {
		s.renderer = report.NewTemplateRenderer()
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultExtractConcurrency
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "analysis")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s, nil
}

// Get returns the stored request with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*store.Request, error) {
	return s.store.Get(ctx, id)
}

// Pack returns the rule pack new analyses will use.
func (s *Service) Pack() *rules.RulePack {
	return s.registry.Current()
}
