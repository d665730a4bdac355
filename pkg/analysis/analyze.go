package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/abstain"
	"getgsa/onboarding/pkg/compliance/report"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/extraction"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/logging"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

// Analysis outcomes recorded in metrics.
const (
	OutcomeProcessed = "processed"
	OutcomeError     = "error"
)

// Analyze runs the pipeline for a stored request and persists its result.
// A request may be analyzed again; each run replaces the previous result.
//
// An unknown ID returns an error wrapping store.ErrNotFound. Any later
// failure marks the request as errored and is returned as an *AnalysisError.
// An unavailable extractor does not fail the run: the affected document is
// kept with its extraction error and the verdict is flagged as degraded.
func (s *Service) Analyze(ctx context.Context, id string) (*store.Request, error) {
	ctx = logging.WithAnalysisID(ctx, id)
	ctx, span := s.tracer.Start(ctx, "analysis.analyze")
	defer span.End()

	start := time.Now()
	req, err := s.store.Get(ctx, id)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	tracing.SetAnalysisAttributes(span, id, len(req.Documents))

	result, err := s.Run(ctx, req.Documents)
	if err == nil {
		err = s.store.SaveResult(ctx, id, result)
		if err != nil {
			err = NewAnalysisError(id, StageStore, err)
		}
	}
	if err != nil {
		tracing.SetError(span, err)
		s.metrics.RecordAnalysis(OutcomeError, time.Since(start))
		s.fail(ctx, id, err)
		return nil, withRequestID(id, err)
	}

	s.metrics.RecordAnalysis(OutcomeProcessed, time.Since(start))
	s.logger.InfoContext(ctx, "Analysis completed",
		"required_ok", result.Verdict.RequiredOK,
		"degraded", result.Verdict.Degraded,
		"pack_version", result.Verdict.PackVersion,
		"duration", time.Since(start),
	)
	return s.store.Get(ctx, id)
}

// fail records err on the stored request. The write outlives a cancelled
// caller so the request does not stay pending.
func (s *Service) fail(ctx context.Context, id string, err error) {
	s.logger.ErrorContext(ctx, "Analysis failed", "error", err)
	if markErr := s.store.MarkError(context.WithoutCancel(ctx), id, err.Error()); markErr != nil {
		s.logger.ErrorContext(ctx, "Failed to mark request as errored", "error", markErr)
	}
}

func withRequestID(id string, err error) error {
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		aerr.RequestID = id
		return aerr
	}
	return NewAnalysisError(id, StageEvaluate, err)
}

// Run extracts, evaluates and reports on docs without touching the store.
// The rule pack is captured once, so a concurrent reload does not change
// the rules half way through.
func (s *Service) Run(ctx context.Context, docs []store.Document) (*store.Result, error) {
	pack := s.registry.Current()
	gate := pack.Gate()
	if s.threshold > 0 {
		gate = abstain.New(s.threshold)
	}

	records, err := s.extract(ctx, docs)
	if err != nil {
		return nil, NewAnalysisError("", StageExtract, err)
	}

	verdict, err := s.evaluate(ctx, pack, gate, records)
	if err != nil {
		return nil, NewAnalysisError("", StageEvaluate, err)
	}

	var fields []compliance.ExtractedField
	results := make([]store.DocumentResult, len(records))
	for i, rec := range records {
		fields = append(fields, rec.Fields...)
		gated := gate.Document(rec)
		results[i] = store.DocumentResult{
			ID:                       rec.ID,
			Name:                     rec.Name,
			Classification:           gated.Classification,
			ClassificationConfidence: rec.ClassificationConfidence,
			Fields:                   gated.Fields,
			ExtractionError:          rec.ExtractionError,
		}
	}

	ctx, span := s.tracer.Start(ctx, "analysis.synthesize")
	synth := report.NewSynthesizer(pack, s.renderer, s.logger)
	synth.Gate = gate
	rep, err := synth.Synthesize(ctx, verdict, fields)
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, NewAnalysisError("", StageSynthesize, err)
	}
	span.End()

	digest, err := Digest(verdict)
	if err != nil {
		return nil, NewAnalysisError("", StageDigest, err)
	}

	return &store.Result{
		Verdict:   verdict,
		Report:    rep,
		Documents: results,
		Digest:    digest,
	}, nil
}

// extract runs the extractor on every document with bounded concurrency and
// keeps the input order. Only a cancelled context fails the batch.
func (s *Service) extract(ctx context.Context, docs []store.Document) ([]compliance.DocumentRecord, error) {
	records := make([]compliance.DocumentRecord, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = s.extractOne(gctx, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) extractOne(ctx context.Context, d store.Document) compliance.DocumentRecord {
	ctx, span := s.tracer.Start(ctx, "analysis.extract_document")
	defer span.End()

	rec, err := s.extractor.Extract(ctx, d.RedactedText, extraction.Hint{DocumentID: d.ID, Name: d.Name})
	if err != nil {
		tracing.SetError(span, err)
		s.logger.WarnContext(ctx, "Extraction unavailable, continuing degraded",
			"document_id", d.ID,
			"error", err,
		)
		rec = compliance.DocumentRecord{
			Classification:  compliance.ClassUnknown,
			Fields:          []compliance.ExtractedField{},
			ExtractionError: err.Error(),
		}
	}
	rec.ID = d.ID
	rec.Name = d.Name
	rec.RedactedText = d.RedactedText
	rec.PIIManifest = d.PIIManifest
	if rec.Fields == nil {
		rec.Fields = []compliance.ExtractedField{}
	}

	tracing.SetDocumentAttributes(span, d.ID, string(rec.Classification))
	return rec
}

func (s *Service) evaluate(ctx context.Context, pack *rules.RulePack, gate abstain.Gate, records []compliance.DocumentRecord) (compliance.ComplianceVerdict, error) {
	_, span := s.tracer.Start(ctx, "analysis.evaluate")
	defer span.End()

	ev := &rules.Evaluator{
		Pack:          pack,
		Gate:          gate,
		Now:           s.now,
		Fingerprinter: s.redactor.Fingerprinter(),
		Detector:      s.redactor,
	}
	verdict, err := ev.Evaluate(records)
	if err != nil {
		tracing.SetError(span, err)
		return compliance.ComplianceVerdict{}, fmt.Errorf("rule evaluation failed: %w", err)
	}

	abstentions := 0
	for _, f := range verdict.Findings {
		s.metrics.RecordRuleOutcome(f.RuleID, string(f.Status))
		for _, p := range f.Problems {
			if p.Abstained {
				abstentions++
				s.metrics.RecordAbstention(f.RuleID, string(p.Reason))
			}
		}
	}
	s.metrics.RecordVerdict(verdict.RequiredOK, verdict.Degraded)
	tracing.SetVerdictAttributes(span, verdict.PackVersion, verdict.RequiredOK, verdict.Degraded, abstentions)
	return verdict, nil
}
