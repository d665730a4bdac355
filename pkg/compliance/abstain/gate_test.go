package abstain

import (
	"testing"

	"getgsa/onboarding/pkg/compliance"
)

func TestDecide(t *testing.T) {
	g := New(DefaultThreshold)

	tests := []struct {
		name        string
		value       *compliance.Value
		confidence  float64
		hint        compliance.AbstainReason
		wantDecided bool
		wantReason  compliance.AbstainReason
	}{
		{
			name:        "at threshold",
			value:       compliance.StringValue("ABC123DEF456"),
			confidence:  0.70,
			wantDecided: true,
		},
		{
			name:        "below threshold",
			value:       compliance.StringValue("ABC123DEF456"),
			confidence:  0.69,
			wantDecided: false,
			wantReason:  compliance.ReasonConfidenceTooLow,
		},
		{
			name:        "below threshold without value",
			value:       nil,
			confidence:  0.2,
			wantDecided: false,
			wantReason:  compliance.ReasonInsufficientData,
		},
		{
			name:        "hint wins",
			value:       compliance.StringValue("Acme"),
			confidence:  0.5,
			hint:        compliance.ReasonConflictingInformation,
			wantDecided: false,
			wantReason:  compliance.ReasonConflictingInformation,
		},
		{
			name:        "unknown hint ignored",
			value:       compliance.StringValue("Acme"),
			confidence:  0.5,
			hint:        "guessing",
			wantDecided: false,
			wantReason:  compliance.ReasonConfidenceTooLow,
		},
		{
			name:        "hint ignored above threshold",
			value:       compliance.StringValue("Acme"),
			confidence:  0.9,
			hint:        compliance.ReasonAmbiguousContent,
			wantDecided: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Decide(tt.value, tt.confidence, tt.hint)
			if d.Decided != tt.wantDecided {
				t.Fatalf("Decided = %v, want %v", d.Decided, tt.wantDecided)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if !d.Decided && d.Value != nil {
				t.Error("withheld decision must not carry a value")
			}
		})
	}
}

func TestNewFallsBackToDefault(t *testing.T) {
	for _, th := range []float64{0, -1, 1.5} {
		if g := New(th); g.Threshold != DefaultThreshold {
			t.Errorf("New(%v).Threshold = %v, want %v", th, g.Threshold, DefaultThreshold)
		}
	}
	if g := New(0.8); g.Threshold != 0.8 {
		t.Errorf("New(0.8).Threshold = %v", g.Threshold)
	}
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	g := New(DefaultThreshold)
	fields := []compliance.ExtractedField{
		{Name: compliance.FieldUEI, Value: compliance.StringValue("ABC123DEF456"), Confidence: 0.4},
		{Name: compliance.FieldDUNS, Value: compliance.StringValue("123456789"), Confidence: 0.95},
	}

	out := g.Sanitize(fields)

	if fields[0].Value == nil {
		t.Fatal("input field was mutated")
	}
	if out[0].Value != nil {
		t.Error("sub-threshold value should be cleared")
	}
	if out[0].Reason != compliance.ReasonConfidenceTooLow {
		t.Errorf("Reason = %q", out[0].Reason)
	}
	if out[1].Value == nil || out[1].Value.Text != "123456789" {
		t.Error("decided value should be kept")
	}
	if out[1].Reason != "" {
		t.Errorf("decided field should carry no reason, got %q", out[1].Reason)
	}
}

func TestClassify(t *testing.T) {
	g := New(DefaultThreshold)

	class, reason := g.Classify(compliance.ClassPricing, 0.9)
	if class != compliance.ClassPricing || reason != "" {
		t.Errorf("Classify(pricing, 0.9) = %s, %q", class, reason)
	}

	class, reason = g.Classify(compliance.ClassPricing, 0.3)
	if class != compliance.ClassUnknown || reason != compliance.ReasonAmbiguousContent {
		t.Errorf("Classify(pricing, 0.3) = %s, %q", class, reason)
	}
}

func TestDocument(t *testing.T) {
	g := New(DefaultThreshold)
	doc := compliance.DocumentRecord{
		ID:                       "d1",
		Classification:           compliance.ClassProfile,
		ClassificationConfidence: 0.5,
		Fields: []compliance.ExtractedField{
			{Name: compliance.FieldUEI, Value: compliance.StringValue("ABC123DEF456"), Confidence: 0.5},
		},
	}

	out := g.Document(doc)
	if out.Classification != compliance.ClassUnknown {
		t.Errorf("Classification = %s, want unknown", out.Classification)
	}
	if out.Fields[0].Value != nil {
		t.Error("field should be withheld")
	}
	if doc.Classification != compliance.ClassProfile {
		t.Error("input document was mutated")
	}
}
