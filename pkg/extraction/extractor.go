package extraction

import (
	"context"

	"getgsa/onboarding/pkg/compliance"
)

// Collaborator names used in errors, logs and metrics.
const (
	CollaboratorExtractor = "extractor"
	CollaboratorProse     = "prose"
)

// Hint carries what is known about a document besides its text.
type Hint struct {
	// DocumentID is copied to the returned record.
	DocumentID string

	// Name is the document name given at ingest, e.g. "Company Profile".
	Name string
}

// Extractor turns redacted document text into a DocumentRecord with a
// classification and confidence-annotated fields. The returned record
// carries the text it was given; the caller attaches the PII manifest.
type Extractor interface {
	Extract(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, redactedText string, hint Hint) (compliance.DocumentRecord, error) {
	return f(ctx, redactedText, hint)
}

func newRecord(text string, hint Hint) compliance.DocumentRecord {
	return compliance.DocumentRecord{
		ID:             hint.DocumentID,
		Name:           hint.Name,
		Classification: compliance.ClassUnknown,
		RedactedText:   text,
		Fields:         []compliance.ExtractedField{},
	}
}
