package analysis

import (
	"getgsa/onboarding/pkg/store"
)

// PreviewLength is the number of characters of redacted text shown in an
// ingest summary.
const PreviewLength = 200

// NotCompletedMessage is returned for a request that has not been analyzed.
const NotCompletedMessage = "Analysis not yet completed"

// DocumentInput is one uploaded document.
type DocumentInput struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// IngestRequest is a batch of documents submitted together.
type IngestRequest struct {
	Documents []DocumentInput `json:"documents"`
}

// IngestResponse summarizes a stored batch.
type IngestResponse struct {
	RequestID      string                  `json:"request_id"`
	Status         store.Status            `json:"status"`
	Documents      []store.DocumentSummary `json:"doc_summaries"`
	TotalDocuments int                     `json:"total_documents"`
	TotalWordCount int                     `json:"total_word_count"`
}

// AnalyzeRequest names the ingested request to analyze.
type AnalyzeRequest struct {
	RequestID string `json:"request_id"`
}

// AnalyzeResponse is the public view of a stored request. The result fields
// are inlined once the request is processed.
type AnalyzeResponse struct {
	RequestID string       `json:"request_id"`
	Status    store.Status `json:"status"`
	Message   string       `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`

	*store.Result
}

// NewAnalyzeResponse builds the response for r.
func NewAnalyzeResponse(r *store.Request) AnalyzeResponse {
	resp := AnalyzeResponse{
		RequestID: r.ID,
		Status:    r.Status,
		Error:     r.Error,
	}
	switch {
	case r.Status == store.StatusProcessed && r.Result != nil:
		resp.Result = r.Result
	case r.Status == store.StatusPending:
		resp.Message = NotCompletedMessage
	}
	return resp
}
