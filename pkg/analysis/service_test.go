package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/rules"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/extraction"
	"getgsa/onboarding/pkg/redact"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/metrics"
)

const profileText = `Acme Federal Solutions LLC
UEI: ABCD1234EFGH
DUNS: 123456789
SAM Status: Active
NAICS: 541511, 541512
POC: jane.doe@acme.example, (555) 123-4567`

const pricingText = `Labor Category: Senior Software Engineer | Rate: $125/hr | Hours: 200
Labor Category: Project Manager | Rate: $110.00/hr | Hours: 100
Total Project Value: $36,000`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, modify func(*Options)) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	ids := atomic.Int64{}
	opts := Options{
		Store:     st,
		Registry:  rules.NewRegistry(nil),
		Redactor:  redact.New("test-secret"),
		Extractor: extraction.NewPatternExtractor(),
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			return "req-" + string(rune('0'+ids.Add(1)))
		},
	}
	if modify != nil {
		modify(&opts)
	}
	svc, err := New(opts)
	require.NoError(t, err)
	return svc, st
}

func TestNew_RequiresCollaborators(t *testing.T) {
	valid := Options{
		Store:     store.NewMemoryStore(),
		Registry:  rules.NewRegistry(nil),
		Redactor:  redact.New("k"),
		Extractor: extraction.NewPatternExtractor(),
	}
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"no store", func(o *Options) { o.Store = nil }},
		{"no registry", func(o *Options) { o.Registry = nil }},
		{"no redactor", func(o *Options) { o.Redactor = nil }},
		{"no extractor", func(o *Options) { o.Extractor = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.modify(&opts)
			_, err := New(opts)
			assert.Error(t, err)
		})
	}

	svc, err := New(valid)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxDocumentsPerRequest, svc.limits.MaxDocumentsPerRequest)
	assert.NotEmpty(t, svc.newID())
}

func TestIngest(t *testing.T) {
	svc, st := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Ingest(ctx, IngestRequest{Documents: []DocumentInput{
		{Name: "Company Profile", Text: profileText},
		{Name: "", Text: "orphan"},
		{Name: "Pricing Sheet", Text: pricingText},
	}})
	require.NoError(t, err)

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, store.StatusPending, resp.Status)
	assert.Equal(t, 3, resp.TotalDocuments)
	require.Len(t, resp.Documents, 3)

	profile := resp.Documents[0]
	assert.Equal(t, store.DocumentStored, profile.Status)
	assert.Equal(t, map[string]int{"email": 1, "phone": 1}, profile.PIICounts)
	assert.NotContains(t, profile.Preview, "jane.doe@acme.example")
	assert.Contains(t, profile.Preview, "[EMAIL_REDACTED]")

	rejected := resp.Documents[1]
	assert.Equal(t, store.DocumentRejected, rejected.Status)
	assert.Equal(t, []string{"document name is required"}, rejected.Issues)
	assert.Zero(t, rejected.WordCount)

	assert.Equal(t, profile.WordCount+resp.Documents[2].WordCount, resp.TotalWordCount)

	stored, err := st.Get(ctx, resp.RequestID)
	require.NoError(t, err)
	require.Len(t, stored.Documents, 2)
	assert.Equal(t, "doc-1", stored.Documents[0].ID)
	assert.Equal(t, "doc-3", stored.Documents[1].ID)
	assert.True(t, stored.CreatedAt.Equal(fixedNow))
	for _, d := range stored.Documents {
		assert.NotContains(t, d.RedactedText, "jane.doe@acme.example")
		for _, e := range d.PIIManifest.Entries {
			assert.Empty(t, e.Value)
			assert.NotEmpty(t, e.Fingerprint)
		}
	}
}

func TestIngest_Rejections(t *testing.T) {
	big := strings.Repeat("x", 1024*1024+1)
	tests := []struct {
		name      string
		docs      []DocumentInput
		wantField string
	}{
		{"empty batch", nil, "documents"},
		{"too many documents", []DocumentInput{{"a", "1"}, {"b", "2"}, {"c", "3"}}, "documents"},
		{"all documents invalid", []DocumentInput{{"a", "  "}, {"b", big}}, "documents[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t, func(o *Options) {
				o.Limits = config.LimitsConfig{MaxDocumentsPerRequest: 2, MaxDocumentSizeMB: 1}
			})
			_, err := svc.Ingest(context.Background(), IngestRequest{Documents: tt.docs})

			var verr *compliance.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Errors[0].Field)

			count, _ := st.Count(context.Background(), nil)
			assert.Zero(t, count)
		})
	}
}

func TestPreview(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("é", PreviewLength+5)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, PreviewLength+3, len([]rune(got)))
}

func TestAnalyze(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		Subsystem:              "analysis",
		RequestDurationBuckets: []float64{0.1, 1},
	}, reg)
	svc, _ := newTestService(t, func(o *Options) { o.Metrics = collector })
	ctx := context.Background()

	resp, err := svc.Ingest(ctx, IngestRequest{Documents: []DocumentInput{
		{Name: "Company Profile", Text: profileText},
		{Name: "Pricing Sheet", Text: pricingText},
	}})
	require.NoError(t, err)

	req, err := svc.Analyze(ctx, resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusProcessed, req.Status)
	require.NotNil(t, req.Result)

	verdict := req.Result.Verdict
	assert.Len(t, verdict.Findings, 5)
	assert.Equal(t, rules.DefaultPack().Version, verdict.PackVersion)
	assert.True(t, verdict.EvaluatedAt.Equal(fixedNow))
	assert.False(t, verdict.Degraded)

	hygiene, ok := verdict.Finding(rules.RuleHygiene)
	require.True(t, ok)
	assert.Equal(t, compliance.StatusPass, hygiene.Status)

	require.Len(t, req.Result.Documents, 2)
	assert.Equal(t, compliance.ClassProfile, req.Result.Documents[0].Classification)
	assert.Equal(t, compliance.ClassPricing, req.Result.Documents[1].Classification)

	want, err := Digest(verdict)
	require.NoError(t, err)
	assert.Equal(t, want, req.Result.Digest)
	assert.Len(t, req.Result.Digest, 64)

	assert.NotEmpty(t, req.Result.Report.Checklist.Items)
	assert.NotEmpty(t, req.Result.Report.Brief.Text)

	n, err := testutil.GatherAndCount(reg, "test_analysis_analyses_total", "test_analysis_verdicts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAnalyze_Idempotent(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Ingest(ctx, IngestRequest{Documents: []DocumentInput{{Name: "Company Profile", Text: profileText}}})
	require.NoError(t, err)

	first, err := svc.Analyze(ctx, resp.RequestID)
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, resp.RequestID)
	require.NoError(t, err)

	assert.Equal(t, first.Result.Digest, second.Result.Digest)
	assert.Equal(t, first.Result.Verdict, second.Result.Verdict)
}

func TestAnalyze_NotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Analyze(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestAnalyze_ExtractorUnavailable(t *testing.T) {
	pattern := extraction.NewPatternExtractor()
	flaky := extraction.ExtractorFunc(func(ctx context.Context, text string, hint extraction.Hint) (compliance.DocumentRecord, error) {
		if hint.Name == "Pricing Sheet" {
			return compliance.DocumentRecord{}, compliance.NewCollaboratorUnavailable("extractor", errors.New("upstream timeout"))
		}
		return pattern.Extract(ctx, text, hint)
	})
	svc, _ := newTestService(t, func(o *Options) { o.Extractor = flaky })
	ctx := context.Background()

	resp, err := svc.Ingest(ctx, IngestRequest{Documents: []DocumentInput{
		{Name: "Company Profile", Text: profileText},
		{Name: "Pricing Sheet", Text: pricingText},
	}})
	require.NoError(t, err)

	req, err := svc.Analyze(ctx, resp.RequestID)
	require.NoError(t, err)
	assert.True(t, req.Result.Verdict.Degraded)

	pricing := req.Result.Documents[1]
	assert.Equal(t, compliance.ClassUnknown, pricing.Classification)
	assert.Contains(t, pricing.ExtractionError, "upstream timeout")
	assert.Equal(t, compliance.ClassProfile, req.Result.Documents[0].Classification)
}

type failingStore struct {
	*store.MemoryStore
}

func (f failingStore) SaveResult(ctx context.Context, id string, result *store.Result) error {
	return store.NewStorageError("memory", "save_result", errors.New("disk full"))
}

func TestAnalyze_StoreFailureMarksError(t *testing.T) {
	st := failingStore{store.NewMemoryStore()}
	svc, _ := newTestService(t, func(o *Options) { o.Store = st })
	ctx := context.Background()

	resp, err := svc.Ingest(ctx, IngestRequest{Documents: []DocumentInput{{Name: "Company Profile", Text: profileText}}})
	require.NoError(t, err)

	_, err = svc.Analyze(ctx, resp.RequestID)
	var aerr *AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, StageStore, aerr.Stage)
	assert.Equal(t, resp.RequestID, aerr.RequestID)

	got, err := st.Get(ctx, resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, got.Status)
	assert.Contains(t, got.Error, "disk full")
}

func TestAnalyze_Cancelled(t *testing.T) {
	svc, st := newTestService(t, nil)
	resp, err := svc.Ingest(context.Background(), IngestRequest{Documents: []DocumentInput{{Name: "Company Profile", Text: profileText}}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Analyze(ctx, resp.RequestID)
	assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)

	got, err := st.Get(context.Background(), resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, got.Status)
}

func TestRun_ThresholdOverride(t *testing.T) {
	svc, _ := newTestService(t, func(o *Options) { o.Threshold = 0.99 })
	docs := []store.Document{{ID: "doc-1", Name: "Company Profile", RedactedText: redact.New("k").RedactString(profileText)}}

	result, err := svc.Run(context.Background(), docs)
	require.NoError(t, err)
	for _, f := range result.Documents[0].Fields {
		assert.Nil(t, f.Value, "field %s should be withheld at 0.99", f.Name)
	}
	assert.True(t, result.Verdict.HasAbstentions())
}

func TestNewAnalyzeResponse(t *testing.T) {
	res := &store.Result{Digest: "abc"}
	tests := []struct {
		name        string
		req         *store.Request
		wantMessage string
		wantResult  bool
	}{
		{"pending", &store.Request{ID: "r1", Status: store.StatusPending}, NotCompletedMessage, false},
		{"processed", &store.Request{ID: "r1", Status: store.StatusProcessed, Result: res}, "", true},
		{"error", &store.Request{ID: "r1", Status: store.StatusError, Error: "boom"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAnalyzeResponse(tt.req)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantResult, got.Result != nil)
			assert.Equal(t, tt.req.Error, got.Error)
		})
	}
}
