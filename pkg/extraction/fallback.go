package extraction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/telemetry/metrics"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

// Call outcomes recorded in metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Options instruments a decorated collaborator. Every member may be nil or
// zero.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// Timeout bounds each call to the primary collaborator.
	Timeout time.Duration
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default().With("component", "extraction")
	}
	return o.Logger
}

type fallbackExtractor struct {
	primary  Extractor
	fallback Extractor
	opts     Options
}

// WithFallback decorates primary so that a failure or timeout is answered by
// fallback. With a nil fallback the failure is only wrapped. Either way a
// failed extraction returns a *compliance.CollaboratorUnavailableError.
func WithFallback(primary, fallback Extractor, opts Options) Extractor {
	return &fallbackExtractor{primary: primary, fallback: fallback, opts: opts}
}

func (f *fallbackExtractor) Extract(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error) {
	ctx, span := f.opts.Tracer.Start(ctx, "extraction.extract")
	defer span.End()
	tracing.SetDocumentAttributes(span, hint.DocumentID, "")

	start := time.Now()
	rec, err := f.callPrimary(ctx, redactedText, hint)
	if err == nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorExtractor, OutcomeSuccess, time.Since(start))
		tracing.SetAssistantAttributes(span, CollaboratorExtractor, false)
		span.SetAttributes(tracing.AttrClassification.String(string(rec.Classification)))
		return rec, nil
	}

	f.opts.Metrics.RecordAssistantError(CollaboratorExtractor, errorType(err))
	logger := f.opts.logger()

	// The caller gave up; answering from the fallback would only waste work.
	if ctx.Err() != nil || f.fallback == nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorExtractor, OutcomeError, time.Since(start))
		tracing.SetError(span, err)
		logger.WarnContext(ctx, "extractor unavailable",
			"document_id", hint.DocumentID,
			"error_type", errorType(err),
			"error", err,
		)
		return compliance.DocumentRecord{}, compliance.NewCollaboratorUnavailable(CollaboratorExtractor, err)
	}

	logger.WarnContext(ctx, "extractor failed, using fallback",
		"document_id", hint.DocumentID,
		"error_type", errorType(err),
		"error", err,
	)
	tracing.SetAssistantAttributes(span, CollaboratorExtractor, true)

	rec, ferr := f.fallback.Extract(ctx, redactedText, hint)
	if ferr != nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorExtractor, OutcomeError, time.Since(start))
		joined := errors.Join(err, ferr)
		tracing.SetError(span, joined)
		return compliance.DocumentRecord{}, compliance.NewCollaboratorUnavailable(CollaboratorExtractor, joined)
	}
	f.opts.Metrics.RecordAssistantCall(CollaboratorExtractor, OutcomeFallback, time.Since(start))
	span.SetAttributes(tracing.AttrClassification.String(string(rec.Classification)))
	return rec, nil
}

func (f *fallbackExtractor) callPrimary(ctx context.Context, text string, hint Hint) (compliance.DocumentRecord, error) {
	if f.opts.Timeout <= 0 {
		return f.primary.Extract(ctx, text, hint)
	}
	callCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()
	return f.primary.Extract(callCtx, text, hint)
}
