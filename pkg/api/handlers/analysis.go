package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/store"
)

// bodySlack is allowed on top of the document limits for JSON framing and
// escaping.
const bodySlack = 64 << 10

// Analyzer is the part of the analysis service the handlers use.
type Analyzer interface {
	Ingest(ctx context.Context, req analysis.IngestRequest) (*analysis.IngestResponse, error)
	Analyze(ctx context.Context, id string) (*store.Request, error)
	Get(ctx context.Context, id string) (*store.Request, error)
}

// IngestHandler serves POST /api/v1/ingest.
type IngestHandler struct {
	analyzer Analyzer
	maxBody  int64
	logger   *slog.Logger
}

// NewIngestHandler creates an ingest handler. The request body is capped
// from limits so an oversized batch is refused before it is decoded.
func NewIngestHandler(a Analyzer, limits config.LimitsConfig, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	docs := limits.MaxDocumentsPerRequest
	if docs <= 0 {
		docs = config.DefaultMaxDocumentsPerRequest
	}
	perDoc := int64(limits.MaxDocumentBytes())
	if perDoc <= 0 {
		perDoc = int64(config.DefaultMaxDocumentSizeMB) << 20
	}
	return &IngestHandler{
		analyzer: a,
		// one extra document so the count check, not the body cap, reports
		// a batch that is only too long
		maxBody: int64(docs+1)*perDoc + bodySlack,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req analysis.IngestRequest
	if !decodeBody(w, r, h.maxBody, &req) {
		return
	}

	resp, err := h.analyzer.Ingest(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, resp)
}

// AnalyzeHandler serves POST /api/v1/analyze.
type AnalyzeHandler struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewAnalyzeHandler creates an analyze handler.
func NewAnalyzeHandler(a Analyzer, logger *slog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{analyzer: a, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req analysis.AnalyzeRequest
	if !decodeBody(w, r, bodySlack, &req) {
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.RequestID == "" {
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("request_id is required", "request_id", types.CodeMissingField))
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.RequestID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, analysis.NewAnalyzeResponse(result))
}

// ResultHandler serves GET /api/v1/analyze/{id}.
type ResultHandler struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewResultHandler creates a result handler.
func NewResultHandler(a Analyzer, logger *slog.Logger) *ResultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultHandler{analyzer: a, logger: logger}
}

// ServeHTTP implements http.Handler. The handler must be registered on a
// pattern with an {id} wildcard.
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("request id is required", "id", types.CodeMissingField))
		return
	}

	req, err := h.analyzer.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, analysis.NewAnalyzeResponse(req))
}

// decodeBody reads a JSON body of at most limit bytes into v. It writes the
// error response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			types.WriteError(w, http.StatusRequestEntityTooLarge, types.NewInvalidRequestError(
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), "", types.CodeRequestTooLarge))
			return false
		}
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError("invalid JSON: "+err.Error(), "", types.CodeInvalidJSON))
		return false
	}
	return true
}
