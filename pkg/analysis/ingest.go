package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/redact"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/logging"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

// Ingest validates and redacts a batch and stores it as a pending request.
//
// An empty or oversized batch is rejected with a *compliance.ValidationError.
// Individual documents with problems are reported in the response with their
// issues and left out of the stored request; the batch fails only when no
// document is left.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.ingest")
	defer span.End()

	if err := s.validateBatch(req); err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	id := s.newID()
	ctx = logging.WithAnalysisID(ctx, id)

	resp := &IngestResponse{
		RequestID:      id,
		Status:         store.StatusPending,
		Documents:      make([]store.DocumentSummary, 0, len(req.Documents)),
		TotalDocuments: len(req.Documents),
	}
	docs := make([]store.Document, 0, len(req.Documents))
	piiTotals := make(map[string]int)
	rejected := &compliance.ValidationError{}

	for i, in := range req.Documents {
		if issues := s.documentIssues(in); len(issues) > 0 {
			for _, issue := range issues {
				rejected.Add(fmt.Sprintf("documents[%d]", i), "%s", issue)
			}
			resp.Documents = append(resp.Documents, store.DocumentSummary{
				Name:      in.Name,
				Status:    store.DocumentRejected,
				PIICounts: map[string]int{},
				Issues:    issues,
			})
			continue
		}

		red := s.redactor.Redact(in.Text)
		counts := red.Manifest.CountByType()
		for kind, n := range counts {
			piiTotals[kind] += n
		}

		summary := store.DocumentSummary{
			Name:      in.Name,
			Status:    store.DocumentStored,
			Preview:   preview(red.Text),
			WordCount: len(strings.Fields(red.Text)),
			PIICounts: counts,
		}
		resp.TotalWordCount += summary.WordCount
		resp.Documents = append(resp.Documents, summary)

		docs = append(docs, store.Document{
			ID:           fmt.Sprintf("doc-%d", i+1),
			Name:         in.Name,
			RedactedText: red.Text,
			PIIManifest:  redact.StripValues(red.Manifest),
			Summary:      summary,
		})
	}

	tracing.SetAnalysisAttributes(span, id, len(docs))
	if len(docs) == 0 {
		err := rejected.Err()
		tracing.SetError(span, err)
		s.logger.WarnContext(ctx, "Ingest rejected, no valid documents", "documents", len(req.Documents))
		return nil, err
	}

	now := s.now().UTC()
	err := s.store.Create(ctx, &store.Request{
		ID:        id,
		Status:    store.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Documents: docs,
	})
	if err != nil {
		tracing.SetError(span, err)
		return nil, fmt.Errorf("failed to store request: %w", err)
	}

	redacted := 0
	for _, n := range piiTotals {
		redacted += n
	}
	span.SetAttributes(tracing.AttrRedactedPIICount.Int(redacted))
	s.metrics.RecordIngest(len(docs), piiTotals)

	s.logger.InfoContext(ctx, "Documents ingested",
		"stored", len(docs),
		"rejected", len(req.Documents)-len(docs),
		"pii_redacted", redacted,
		"words", resp.TotalWordCount,
	)
	return resp, nil
}

func (s *Service) validateBatch(req IngestRequest) error {
	verr := &compliance.ValidationError{}
	switch n := len(req.Documents); {
	case n == 0:
		verr.Add("documents", "no documents provided")
	case n > s.limits.MaxDocumentsPerRequest:
		verr.Add("documents", "too many documents: %d (maximum %d)", n, s.limits.MaxDocumentsPerRequest)
	}
	return verr.Err()
}

func (s *Service) documentIssues(in DocumentInput) []string {
	var issues []string
	if strings.TrimSpace(in.Name) == "" {
		issues = append(issues, "document name is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		issues = append(issues, "document text is required")
	} else if len(in.Text) > s.limits.MaxDocumentBytes() {
		issues = append(issues, fmt.Sprintf("document size exceeds %dMB limit", s.limits.MaxDocumentSizeMB))
	}
	return issues
}

// preview returns the first PreviewLength characters of text, with an
// ellipsis when it was cut.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength]) + "..."
}
