package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/report"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/providers"
	"getgsa/onboarding/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestCollector(t *testing.T) *metrics.Collector {
	t.Helper()
	cfg := config.Default().Telemetry.Metrics
	return metrics.NewCollector(&cfg, prometheus.NewRegistry())
}

func failing(err error) Extractor {
	return ExtractorFunc(func(context.Context, string, Hint) (compliance.DocumentRecord, error) {
		return compliance.DocumentRecord{}, err
	})
}

func TestWithFallback(t *testing.T) {
	down := &providers.ProviderError{Provider: "fake", StatusCode: 503, Message: "down"}

	tests := []struct {
		name        string
		primary     Extractor
		fallback    Extractor
		wantErr     bool
		wantClass   compliance.Classification
		wantOutcome string
	}{
		{
			name:        "primary succeeds",
			primary:     NewPatternExtractor(),
			fallback:    failing(errors.New("unused")),
			wantClass:   compliance.ClassProfile,
			wantOutcome: OutcomeSuccess,
		},
		{
			name:        "fallback answers",
			primary:     failing(down),
			fallback:    NewPatternExtractor(),
			wantClass:   compliance.ClassProfile,
			wantOutcome: OutcomeFallback,
		},
		{
			name:        "no fallback",
			primary:     failing(down),
			wantErr:     true,
			wantOutcome: OutcomeError,
		},
		{
			name:        "both fail",
			primary:     failing(down),
			fallback:    failing(errors.New("also down")),
			wantErr:     true,
			wantOutcome: OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := newTestCollector(t)
			ext := WithFallback(tt.primary, tt.fallback, Options{Metrics: collector})

			rec, err := ext.Extract(context.Background(), profileText, Hint{DocumentID: "d1", Name: "Company Profile"})
			if tt.wantErr {
				var unavailable *compliance.CollaboratorUnavailableError
				if !errors.As(err, &unavailable) {
					t.Fatalf("expected CollaboratorUnavailableError, got %T: %v", err, err)
				}
				if unavailable.Collaborator != CollaboratorExtractor || !errors.Is(err, down) {
					t.Errorf("unexpected error %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("Extract failed: %v", err)
				}
				if rec.Classification != tt.wantClass {
					t.Errorf("expected %s, got %s", tt.wantClass, rec.Classification)
				}
			}

			if calls := assistantCalls(t, collector, tt.wantOutcome); calls != 1 {
				t.Errorf("expected one %s call recorded, got %v", tt.wantOutcome, calls)
			}
		})
	}
}

// assistantCalls reads the extractor call counter for outcome from the
// collector's registry.
func assistantCalls(t *testing.T, c *metrics.Collector, outcome string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), "assistant_calls_total") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["collaborator"] == CollaboratorExtractor && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestWithFallback_Timeout(t *testing.T) {
	slow := ExtractorFunc(func(ctx context.Context, _ string, _ Hint) (compliance.DocumentRecord, error) {
		<-ctx.Done()
		return compliance.DocumentRecord{}, ctx.Err()
	})
	ext := WithFallback(slow, NewPatternExtractor(), Options{Timeout: 10 * time.Millisecond})

	rec, err := ext.Extract(context.Background(), profileText, Hint{Name: "Company Profile"})
	if err != nil {
		t.Fatalf("timeout should fall back, got %v", err)
	}
	if rec.Classification != compliance.ClassProfile {
		t.Errorf("expected fallback record, got %s", rec.Classification)
	}
}

func TestWithFallback_CallerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fallbackCalled := false
	fallback := ExtractorFunc(func(context.Context, string, Hint) (compliance.DocumentRecord, error) {
		fallbackCalled = true
		return compliance.DocumentRecord{}, nil
	})
	ext := WithFallback(NewPatternExtractor(), fallback, Options{})

	_, err := ext.Extract(ctx, profileText, Hint{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fallbackCalled {
		t.Error("fallback must not run after the caller canceled")
	}
}

func TestLLMRenderer(t *testing.T) {
	p := &fakeProvider{responses: []string{"  Dear Acme,\nAll good.  "}}
	r := NewLLMRenderer(p, "gpt-test")

	text, err := r.RenderProse(context.Background(), report.SectionEmail, report.EmailContent{EntityName: "Acme"})
	if err != nil {
		t.Fatalf("RenderProse failed: %v", err)
	}
	if text != "Dear Acme,\nAll good." {
		t.Errorf("unexpected text %q", text)
	}
	if !strings.Contains(p.requests[0].Messages[1].Content, `"EntityName": "Acme"`) {
		t.Errorf("content not passed to the model: %q", p.requests[0].Messages[1].Content)
	}

	if _, err := r.RenderProse(context.Background(), "appendix", nil); err == nil {
		t.Error("expected error for unknown section")
	}

	empty := NewLLMRenderer(&fakeProvider{responses: []string{"   "}}, "")
	_, err = empty.RenderProse(context.Background(), report.SectionBrief, report.BriefContent{})
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Errorf("expected ResponseError for empty completion, got %v", err)
	}
}

func TestRendererWithFallback(t *testing.T) {
	down := &providers.TimeoutError{Provider: "fake", Timeout: time.Second}
	content := report.EmailContent{EntityName: "Acme", MissingItems: []string{"A valid UEI"}, HasActionItems: true}

	r := RendererWithFallback(NewLLMRenderer(&fakeProvider{errs: []error{down}}, ""), report.NewTemplateRenderer(), Options{})
	text, err := r.RenderProse(context.Background(), report.SectionEmail, content)
	if err != nil {
		t.Fatalf("fallback should render, got %v", err)
	}
	if !strings.Contains(text, "1. A valid UEI") {
		t.Errorf("expected template output, got %q", text)
	}

	r = RendererWithFallback(NewLLMRenderer(&fakeProvider{errs: []error{down}}, ""), nil, Options{})
	_, err = r.RenderProse(context.Background(), report.SectionEmail, content)
	var unavailable *compliance.CollaboratorUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Collaborator != CollaboratorProse {
		t.Errorf("expected prose CollaboratorUnavailableError, got %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*config.AssistantConfig)
		wantProvider bool
		wantTemplate bool
	}{
		{
			name:         "defaults",
			modify:       func(*config.AssistantConfig) {},
			wantTemplate: true,
		},
		{
			name: "llm without key falls back",
			modify: func(c *config.AssistantConfig) {
				c.Extractor = "llm"
				c.Prose = "llm"
				c.Fallback = true
				c.Provider.APIKey = ""
			},
			wantTemplate: true,
		},
		{
			name: "llm extractor",
			modify: func(c *config.AssistantConfig) {
				c.Extractor = "llm"
				c.Provider.APIKey = "sk-test"
			},
			wantProvider: true,
			wantTemplate: true,
		},
		{
			name: "llm prose",
			modify: func(c *config.AssistantConfig) {
				c.Prose = "llm"
				c.Provider.APIKey = "sk-test"
			},
			wantProvider: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Assistant
			tt.modify(&cfg)

			c, err := New(cfg, Options{})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer c.Close()

			if (c.Provider != nil) != tt.wantProvider {
				t.Errorf("provider = %v, want present=%v", c.Provider, tt.wantProvider)
			}
			_, isTemplate := c.Renderer.(*report.TemplateRenderer)
			if isTemplate != tt.wantTemplate {
				t.Errorf("renderer %T, want template=%v", c.Renderer, tt.wantTemplate)
			}
			if c.Extractor == nil {
				t.Error("extractor is nil")
			}
		})
	}
}
