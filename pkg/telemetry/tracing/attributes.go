package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on pipeline spans.
const (
	AttrAnalysisID       = attribute.Key("getgsa.analysis_id")
	AttrDocumentCount    = attribute.Key("getgsa.document_count")
	AttrDocumentID       = attribute.Key("getgsa.document_id")
	AttrClassification   = attribute.Key("getgsa.classification")
	AttrPackVersion      = attribute.Key("getgsa.rules.pack_version")
	AttrRequiredOK       = attribute.Key("getgsa.verdict.required_ok")
	AttrDegraded         = attribute.Key("getgsa.verdict.degraded")
	AttrAbstentions      = attribute.Key("getgsa.verdict.abstentions")
	AttrCollaborator     = attribute.Key("getgsa.assistant.collaborator")
	AttrFallback         = attribute.Key("getgsa.assistant.fallback")
	AttrRedactedPIICount = attribute.Key("getgsa.pii.redacted")
)

// SetAnalysisAttributes tags a span with the document request it works on.
func SetAnalysisAttributes(span trace.Span, analysisID string, documents int) {
	span.SetAttributes(
		AttrAnalysisID.String(analysisID),
		AttrDocumentCount.Int(documents),
	)
}

// SetDocumentAttributes tags a span with one document.
func SetDocumentAttributes(span trace.Span, documentID, classification string) {
	span.SetAttributes(
		AttrDocumentID.String(documentID),
		AttrClassification.String(classification),
	)
}

// SetVerdictAttributes tags a span with the outcome of an evaluation.
func SetVerdictAttributes(span trace.Span, packVersion string, requiredOK, degraded bool, abstentions int) {
	span.SetAttributes(
		AttrPackVersion.String(packVersion),
		AttrRequiredOK.Bool(requiredOK),
		AttrDegraded.Bool(degraded),
		AttrAbstentions.Int(abstentions),
	)
}

// SetAssistantAttributes tags a span with an AI collaborator call.
func SetAssistantAttributes(span trace.Span, collaborator string, fallback bool) {
	span.SetAttributes(
		AttrCollaborator.String(collaborator),
		AttrFallback.Bool(fallback),
	)
}
