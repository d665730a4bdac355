package extraction

import (
	"context"
	"testing"
	"time"

	"getgsa/onboarding/pkg/compliance"
)

const profileText = `Acme Federal Solutions LLC
UEI: ABCD1234EFGH
DUNS: 123456789
SAM Status: Active
NAICS: 541511, 541512
POC: [EMAIL_REDACTED], [PHONE_REDACTED]`

const pastPerformanceText = `Past Performance
Project: Cloud Migration | Client: Department of Energy | Value: $120,000 | Completed: 2024-03-15

Project: Help Desk Support
Client: GSA
Value: $18,500
Completion Date: March 2021`

const pricingText = `Labor Category: Senior Software Engineer | Rate: $125/hr | Hours: 200
Labor Category: Project Manager | Rate: $110.00/hr | Hours: 100
Total Project Value: $36,000`

func fieldByName(t *testing.T, rec compliance.DocumentRecord, name string) compliance.ExtractedField {
	t.Helper()
	for _, f := range rec.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %q not extracted; got %+v", name, rec.Fields)
	return compliance.ExtractedField{}
}

func hasField(rec compliance.DocumentRecord, name string) bool {
	for _, f := range rec.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func TestPatternExtractor_Profile(t *testing.T) {
	rec, err := NewPatternExtractor().Extract(context.Background(), profileText, Hint{DocumentID: "d1", Name: "Company Profile"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if rec.ID != "d1" || rec.Name != "Company Profile" || rec.RedactedText != profileText {
		t.Errorf("record identity not copied: %+v", rec)
	}
	if rec.Classification != compliance.ClassProfile {
		t.Errorf("expected profile, got %s", rec.Classification)
	}
	if rec.ClassificationConfidence < 0.7 {
		t.Errorf("expected confident classification, got %v", rec.ClassificationConfidence)
	}

	tests := []struct {
		name       string
		want       string
		confidence float64
	}{
		{compliance.FieldUEI, "ABCD1234EFGH", confidenceLabelled},
		{compliance.FieldDUNS, "123456789", confidenceLabelled},
		{compliance.FieldSAMStatus, "Active", confidenceStructure},
		{compliance.FieldEntityName, "Acme Federal Solutions LLC", confidenceInferred},
		{compliance.FieldPOCEmail, "[EMAIL_REDACTED]", confidenceStructure},
		{compliance.FieldPOCPhone, "[PHONE_REDACTED]", confidenceStructure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fieldByName(t, rec, tt.name)
			if f.Value == nil || f.Value.Text != tt.want {
				t.Errorf("expected %q, got %+v", tt.want, f.Value)
			}
			if f.Confidence != tt.confidence {
				t.Errorf("expected confidence %v, got %v", tt.confidence, f.Confidence)
			}
		})
	}

	naics := fieldByName(t, rec, compliance.FieldNAICS)
	if got := naics.Value.Items; len(got) != 2 || got[0] != "541511" || got[1] != "541512" {
		t.Errorf("unexpected NAICS %v", got)
	}
	for _, name := range []string{compliance.FieldPastPerformance, compliance.FieldPricing, compliance.FieldTotalValue} {
		if hasField(rec, name) {
			t.Errorf("profile should not yield %s", name)
		}
	}
}

func TestPatternExtractor_PastPerformance(t *testing.T) {
	rec, err := NewPatternExtractor().Extract(context.Background(), pastPerformanceText, Hint{Name: "past_performance.txt"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if rec.Classification != compliance.ClassPastPerformance {
		t.Errorf("expected past_performance, got %s (%v)", rec.Classification, rec.ClassificationConfidence)
	}

	f := fieldByName(t, rec, compliance.FieldPastPerformance)
	projects := f.Value.Projects
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %+v", projects)
	}

	first := projects[0]
	if first.Title != "Cloud Migration" || first.Client != "Department of Energy" {
		t.Errorf("unexpected first project %+v", first)
	}
	if first.Value == nil || *first.Value != 120000 {
		t.Errorf("unexpected value %v", first.Value)
	}
	if first.CompletionDate == nil || !first.CompletionDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected completion date %v", first.CompletionDate)
	}

	second := projects[1]
	if second.Value == nil || *second.Value != 18500 {
		t.Errorf("unexpected value %v", second.Value)
	}
	if second.CompletionDate == nil || !second.CompletionDate.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected completion date %v", second.CompletionDate)
	}
	if f.Confidence != confidenceStructure {
		t.Errorf("complete projects should be confident, got %v", f.Confidence)
	}
	if hasField(rec, compliance.FieldUEI) {
		t.Error("past performance should not yield a UEI")
	}
}

func TestPatternExtractor_Pricing(t *testing.T) {
	rec, err := NewPatternExtractor().Extract(context.Background(), pricingText, Hint{Name: "Pricing"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if rec.Classification != compliance.ClassPricing {
		t.Errorf("expected pricing, got %s", rec.Classification)
	}

	labor := fieldByName(t, rec, compliance.FieldPricing).Value.Labor
	if len(labor) != 2 {
		t.Fatalf("expected 2 labor categories, got %+v", labor)
	}
	if labor[0].Category != "Senior Software Engineer" || *labor[0].Rate != 125 || *labor[0].Hours != 200 || labor[0].Unit != "Hour" {
		t.Errorf("unexpected first labor category %+v", labor[0])
	}
	if *labor[1].Rate != 110 {
		t.Errorf("unexpected second rate %v", *labor[1].Rate)
	}

	total := fieldByName(t, rec, compliance.FieldTotalValue)
	if total.Value.Number != 36000 {
		t.Errorf("expected total 36000, got %v", total.Value.Number)
	}
}

func TestPatternExtractor_PricingRows(t *testing.T) {
	text := `Rates
- Senior Software Engineer: $125/hour, 200 hours
- Business Analyst - $95 per hour - 120 hrs - total $11,400
* Trainer $800/day`

	rec, err := NewPatternExtractor().Extract(context.Background(), text, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	labor := fieldByName(t, rec, compliance.FieldPricing).Value.Labor
	if len(labor) != 3 {
		t.Fatalf("expected 3 rows, got %+v", labor)
	}

	tests := []struct {
		category string
		rate     float64
		hours    *float64
		total    *float64
		unit     string
	}{
		{"Senior Software Engineer", 125, ptr(200.0), nil, "Hour"},
		{"Business Analyst", 95, ptr(120.0), ptr(11400.0), "Hour"},
		{"Trainer", 800, nil, nil, "Day"},
	}
	for i, tt := range tests {
		got := labor[i]
		if got.Category != tt.category || got.Rate == nil || *got.Rate != tt.rate || got.Unit != tt.unit {
			t.Errorf("row %d: got %+v", i, got)
		}
		if !equalPtr(got.Hours, tt.hours) || !equalPtr(got.Total, tt.total) {
			t.Errorf("row %d: hours %v total %v", i, got.Hours, got.Total)
		}
	}
}

func TestPatternExtractor_MalformedIdentifiers(t *testing.T) {
	text := "UEI: 12345\nDUNS Number: 12-345-678"
	rec, err := NewPatternExtractor().Extract(context.Background(), text, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	uei := fieldByName(t, rec, compliance.FieldUEI)
	if uei.Value.Text != "12345" || uei.Confidence != confidencePartial {
		t.Errorf("unexpected UEI %+v", uei)
	}
	duns := fieldByName(t, rec, compliance.FieldDUNS)
	if duns.Value.Text != "12345678" || duns.Confidence != confidencePartial {
		t.Errorf("unexpected DUNS %+v", duns)
	}
}

func TestPatternExtractor_Variants(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
		want  string
	}{
		{"parenthesized UEI", "Unique Entity ID (UEI): zyxw9876vuts", compliance.FieldUEI, "ZYXW9876VUTS"},
		{"UEI sentence", "Our UEI is ABCD1234EFGH.", compliance.FieldUEI, "ABCD1234EFGH"},
		{"SAM registration", "SAM.gov Registration: Active - Pending (renewed 2024)", compliance.FieldSAMStatus, "Active - Pending"},
		{"SAM sentence", "Our SAM registration is expired.", compliance.FieldSAMStatus, "expired"},
		{"labelled entity", "Company Name: Beta Systems Inc", compliance.FieldEntityName, "Beta Systems Inc"},
		{"contact email", "Point of contact: jane@beta.example", compliance.FieldPOCEmail, "jane@beta.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewPatternExtractor().Extract(context.Background(), tt.text, Hint{})
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			f := fieldByName(t, rec, tt.field)
			if f.Value == nil || f.Value.Text != tt.want {
				t.Errorf("expected %q, got %+v", tt.want, f.Value)
			}
		})
	}
}

func TestPatternExtractor_NAICSList(t *testing.T) {
	text := "NAICS Codes:\n- 541511\n- 541611\n\nOther: 999999"
	rec, err := NewPatternExtractor().Extract(context.Background(), text, Hint{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	items := fieldByName(t, rec, compliance.FieldNAICS).Value.Items
	if len(items) != 2 || items[0] != "541511" || items[1] != "541611" {
		t.Errorf("unexpected NAICS %v", items)
	}
}

func TestPatternExtractor_Unknown(t *testing.T) {
	rec, err := NewPatternExtractor().Extract(context.Background(), "Thank you for your time.", Hint{Name: "notes"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if rec.Classification != compliance.ClassUnknown || rec.ClassificationConfidence != 0 {
		t.Errorf("expected unknown with zero confidence, got %s %v", rec.Classification, rec.ClassificationConfidence)
	}
	if len(rec.Fields) != 0 {
		t.Errorf("expected no fields, got %+v", rec.Fields)
	}
	if rec.Fields == nil {
		t.Error("fields should be an empty slice, not nil")
	}
}

func TestPatternExtractor_EntityNameOnlyForProfiles(t *testing.T) {
	rec, err := NewPatternExtractor().Extract(context.Background(), pricingText, Hint{Name: "Pricing"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if hasField(rec, compliance.FieldEntityName) {
		t.Error("first-line entity name must only be inferred for profiles")
	}
}

func TestPatternExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPatternExtractor().Extract(ctx, profileText, Hint{}); err == nil {
		t.Fatal("expected context error")
	}
}

func ptr[T any](v T) *T { return &v }

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
