package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/extraction"
	"getgsa/onboarding/pkg/redact"
	"getgsa/onboarding/pkg/store"
)

const profileText = `Acme Federal Solutions LLC
UEI: ABCD1234EFGH
SAM Status: Active
NAICS: 541511
POC: jane.doe@acme.example`

func newMux(t *testing.T, limits config.LimitsConfig) *http.ServeMux {
	t.Helper()
	registry := rules.NewRegistry(nil)
	svc, err := analysis.New(analysis.Options{
		Store:     store.NewMemoryStore(),
		Registry:  registry,
		Redactor:  redact.New("handler-secret"),
		Extractor: extraction.NewPatternExtractor(),
		Limits:    limits,
		NewID:     func() string { return "req-1" },
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/ingest", NewIngestHandler(svc, limits, nil))
	mux.Handle("POST /api/v1/analyze", NewAnalyzeHandler(svc, nil))
	mux.Handle("GET /api/v1/analyze/{id}", NewResultHandler(svc, nil))
	mux.Handle("GET /api/v1/rules", NewRulesHandler(registry))
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorDetail {
	t.Helper()
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func ingestBody(t *testing.T, docs ...analysis.DocumentInput) string {
	t.Helper()
	b, err := json.Marshal(analysis.IngestRequest{Documents: docs})
	require.NoError(t, err)
	return string(b)
}

func TestIngestAnalyzeResult(t *testing.T) {
	mux := newMux(t, config.Default().Limits)

	rec := do(t, mux, http.MethodPost, "/api/v1/ingest",
		ingestBody(t, analysis.DocumentInput{Name: "Company Profile", Text: profileText}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ingest analysis.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingest))
	assert.Equal(t, "req-1", ingest.RequestID)
	assert.Equal(t, store.StatusPending, ingest.Status)
	require.Len(t, ingest.Documents, 1)
	assert.Equal(t, 1, ingest.Documents[0].PIICounts["email"])
	assert.NotContains(t, rec.Body.String(), "jane.doe@acme.example")

	rec = do(t, mux, http.MethodGet, "/api/v1/analyze/req-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), analysis.NotCompletedMessage)

	rec = do(t, mux, http.MethodPost, "/api/v1/analyze", `{"request_id":"req-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "processed", body["status"])
	assert.Contains(t, body, "verdict")
	assert.Contains(t, body, "report")
	assert.Len(t, body["digest"], 64)

	rec = do(t, mux, http.MethodGet, "/api/v1/analyze/req-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), analysis.NotCompletedMessage)
	assert.NotContains(t, rec.Body.String(), "jane.doe@acme.example")
}

func TestIngest_Errors(t *testing.T) {
	limits := config.LimitsConfig{MaxDocumentSizeMB: 1, MaxDocumentsPerRequest: 2}
	tooMany := ingestBody(t,
		analysis.DocumentInput{Name: "a", Text: "x"},
		analysis.DocumentInput{Name: "b", Text: "x"},
		analysis.DocumentInput{Name: "c", Text: "x"},
	)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantParam  string
	}{
		{"invalid json", `{"documents":`, http.StatusBadRequest, types.CodeInvalidJSON, ""},
		{"no documents", `{"documents":[]}`, http.StatusBadRequest, types.CodeInvalidValue, "documents"},
		{"too many documents", tooMany, http.StatusBadRequest, types.CodeInvalidValue, "documents"},
		{"missing text", ingestBody(t, analysis.DocumentInput{Name: "a"}), http.StatusBadRequest, types.CodeInvalidValue, "documents[0]"},
		{"body too large", `{"documents":[{"name":"a","text":"` + strings.Repeat("x", 4<<20) + `"}]}`,
			http.StatusRequestEntityTooLarge, types.CodeRequestTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newMux(t, limits), http.MethodPost, "/api/v1/ingest", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.wantParam, detail.Param)
			assert.Equal(t, types.ErrorTypeInvalidRequest, detail.Type)
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"missing request id", `{}`, http.StatusBadRequest, types.ErrorTypeInvalidRequest},
		{"blank request id", `{"request_id":"  "}`, http.StatusBadRequest, types.ErrorTypeInvalidRequest},
		{"invalid json", `not json`, http.StatusBadRequest, types.ErrorTypeInvalidRequest},
		{"unknown request", `{"request_id":"nope"}`, http.StatusNotFound, types.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newMux(t, config.Default().Limits), http.MethodPost, "/api/v1/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, decodeError(t, rec).Type)
		})
	}
}

func TestResult_NotFound(t *testing.T) {
	rec := do(t, newMux(t, config.Default().Limits), http.MethodGet, "/api/v1/analyze/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, types.CodeRequestNotFound, decodeError(t, rec).Code)
}

// stubAnalyzer returns err from every call.
type stubAnalyzer struct {
	err error
}

func (s stubAnalyzer) Ingest(context.Context, analysis.IngestRequest) (*analysis.IngestResponse, error) {
	return nil, s.err
}

func (s stubAnalyzer) Analyze(context.Context, string) (*store.Request, error) {
	return nil, s.err
}

func (s stubAnalyzer) Get(context.Context, string) (*store.Request, error) {
	return nil, s.err
}

func TestWriteServiceError(t *testing.T) {
	verr := &compliance.ValidationError{}
	verr.Add("documents", "no documents provided")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", verr, http.StatusBadRequest, types.CodeInvalidValue},
		{"not found", store.ErrNotFound, http.StatusNotFound, types.CodeRequestNotFound},
		{"analysis failure", analysis.NewAnalysisError("r1", analysis.StageExtract, errors.New("boom")),
			http.StatusInternalServerError, types.CodeAnalysisFailed},
		{"storage failure", store.NewStorageError("sqlite", "get", errors.New("disk I/O error")),
			http.StatusServiceUnavailable, types.CodeStorageError},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("unexpected"), http.StatusInternalServerError, types.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzeHandler(stubAnalyzer{err: tt.err}, nil)
			rec := do(t, h, http.MethodPost, "/api/v1/analyze", `{"request_id":"r1"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestRulesHandler(t *testing.T) {
	registry := rules.NewRegistry(nil)
	rec := do(t, NewRulesHandler(registry), http.MethodGet, "/api/v1/rules", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rules.DefaultPackVersion, resp.Version)
	assert.Equal(t, "54151S", resp.NAICSToSIN["541511"])
	assert.WithinDuration(t, time.Now(), resp.LoadedAt, time.Minute)
	require.Len(t, resp.Rules, 5)
	for i, rule := range resp.Rules {
		assert.Equal(t, "R"+string(rune('1'+i)), rule.ID)
		assert.NotEmpty(t, rule.Title)
		assert.NotEmpty(t, rule.Description)
	}
}
