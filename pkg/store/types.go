package store

import (
	"fmt"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/report"
)

const (
	// DefaultLimit is the page size used when a query sets no limit.
	DefaultLimit = 100

	// MaxLimit is the largest page a single query may request.
	MaxLimit = 10000
)

// Status is the processing state of a stored request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusError:
		return true
	}
	return false
}

// Document summary statuses.
const (
	DocumentStored   = "stored"
	DocumentRejected = "error"
)

// DocumentSummary is the ingest summary returned for each document. A
// rejected document lists its issues and is not stored.
type DocumentSummary struct {
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	Preview   string         `json:"redacted_preview"`
	WordCount int            `json:"word_count"`
	PIICounts map[string]int `json:"pii_counts"`
	Issues    []string       `json:"issues,omitempty"`
}

// Document is an ingested document. Only redacted text is kept and the PII
// manifest carries fingerprints, never the removed values.
type Document struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	RedactedText string                 `json:"redacted_text"`
	PIIManifest  compliance.PIIManifest `json:"pii_manifest"`
	Summary      DocumentSummary        `json:"summary"`
}

// DocumentResult is what extraction produced for one document, after the
// abstention gate.
type DocumentResult struct {
	ID                       string                      `json:"id"`
	Name                     string                      `json:"name"`
	Classification           compliance.Classification   `json:"classification"`
	ClassificationConfidence float64                     `json:"classification_confidence"`
	Fields                   []compliance.ExtractedField `json:"fields"`
	ExtractionError          string                      `json:"extraction_error,omitempty"`
}

// Result is the stored outcome of an analysis.
type Result struct {
	Verdict   compliance.ComplianceVerdict `json:"verdict"`
	Report    report.Report                `json:"report"`
	Documents []DocumentResult             `json:"documents"`

	// Digest is the hex SHA-256 of the canonical JSON of the verdict.
	Digest string `json:"digest"`
}

// Request is one onboarding submission and, once analyzed, its result.
type Request struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Documents []Document `json:"documents"`
	Result    *Result    `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Query filters stored requests. Offset only applies together with a
// positive Limit.
type Query struct {
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time

	// SortOrder is "asc" or "desc" on creation time. Default: "desc"
	SortOrder string

	Limit  int
	Offset int
}

// Validate checks the query parameters.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.Status != "" && !q.Status.Valid() {
		return NewQueryError(q, fmt.Errorf("invalid status: %s", q.Status))
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start time %s is after end time %s", q.StartTime, q.EndTime))
	}
	return nil
}

func (q *Query) ascending() bool {
	return q.SortOrder == "asc"
}

// clone copies a request deep enough that callers cannot mutate stored
// state, and drops any raw PII values left in manifests.
func clone(r *Request) *Request {
	c := *r
	c.Documents = make([]Document, len(r.Documents))
	for i, d := range r.Documents {
		entries := make([]compliance.PIIEntry, len(d.PIIManifest.Entries))
		for j, e := range d.PIIManifest.Entries {
			e.Value = ""
			entries[j] = e
		}
		d.PIIManifest = compliance.PIIManifest{Entries: entries}
		c.Documents[i] = d
	}
	if r.Result != nil {
		res := *r.Result
		res.Documents = append([]DocumentResult(nil), r.Result.Documents...)
		c.Result = &res
	}
	return &c
}
