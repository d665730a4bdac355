// Package analysis runs the onboarding pipeline on top of the compliance
// engine.
//
// Ingest validates a batch of documents, redacts personal data and stores the
// redacted text as a pending request. Analyze loads a pending request, runs
// the field extractor on every document, evaluates the current rule pack and
// synthesizes the report, then stores the result with a digest of the
// canonical verdict JSON.
//
//	svc, err := analysis.New(analysis.Options{
//	    Store:     st,
//	    Registry:  registry,
//	    Redactor:  redact.New(cfg.Security.SecretKey),
//	    Extractor: collaborators.Extractor,
//	    Renderer:  collaborators.Renderer,
//	})
//	resp, err := svc.Ingest(ctx, analysis.IngestRequest{Documents: docs})
//	req, err := svc.Analyze(ctx, resp.RequestID)
//
// Raw document text never leaves Ingest: the extractor, the rules and the
// store only ever see the redacted form.
package analysis
