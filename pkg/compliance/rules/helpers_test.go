package rules

import (
	"time"

	"getgsa/onboarding/pkg/compliance"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func field(name string, value *compliance.Value, confidence float64) compliance.ExtractedField {
	return compliance.ExtractedField{Name: name, Value: value, Confidence: confidence}
}

func project(value float64, monthsAgo int) compliance.Project {
	return compliance.Project{
		Title:          "Modernization",
		Client:         "Agency",
		Value:          ptr(value),
		CompletionDate: ptr(testNow.AddDate(0, -monthsAgo, 0)),
	}
}

func labor(category string, rate, hours float64) compliance.LaborCategory {
	return compliance.LaborCategory{Category: category, Rate: ptr(rate), Hours: ptr(hours), Unit: "Hour"}
}

// profileDoc is a profile document that satisfies R1 and R2.
func profileDoc() compliance.DocumentRecord {
	return compliance.DocumentRecord{
		ID:                       "doc-profile",
		Name:                     "profile.txt",
		Classification:           compliance.ClassProfile,
		ClassificationConfidence: 0.95,
		RedactedText:             "Acme Federal Solutions LLC\nUEI: ABCD1234EFGH\nPOC: [EMAIL_REDACTED], [PHONE_REDACTED]",
		PIIManifest: compliance.PIIManifest{Entries: []compliance.PIIEntry{
			{Type: "email", Value: "jane@acme.example", Length: 17},
			{Type: "phone", Value: "555-123-4567", Length: 12},
		}},
		Fields: []compliance.ExtractedField{
			field(compliance.FieldUEI, compliance.StringValue("ABCD1234EFGH"), 0.95),
			field(compliance.FieldDUNS, compliance.StringValue("123456789"), 0.95),
			field(compliance.FieldSAMStatus, compliance.StringValue("Active"), 0.9),
			field(compliance.FieldEntityName, compliance.StringValue("Acme Federal Solutions LLC"), 0.9),
			field(compliance.FieldNAICS, compliance.ListValue("541511", "541611"), 0.9),
		},
	}
}

// pastPerformanceDoc satisfies R3.
func pastPerformanceDoc() compliance.DocumentRecord {
	return compliance.DocumentRecord{
		ID:                       "doc-pp",
		Name:                     "past_performance.txt",
		Classification:           compliance.ClassPastPerformance,
		ClassificationConfidence: 0.9,
		RedactedText:             "Customer: Agency\nValue: $30,000",
		Fields: []compliance.ExtractedField{
			field(compliance.FieldPastPerformance, compliance.ProjectsValue(project(30000, 10)), 0.9),
		},
	}
}

// pricingDoc satisfies R4.
func pricingDoc() compliance.DocumentRecord {
	return compliance.DocumentRecord{
		ID:                       "doc-pricing",
		Name:                     "pricing.txt",
		Classification:           compliance.ClassPricing,
		ClassificationConfidence: 0.9,
		RedactedText:             "Senior Developer, $125/hr, 200 hours",
		Fields: []compliance.ExtractedField{
			field(compliance.FieldPricing, compliance.LaborValue(labor("Senior Developer", 125, 200)), 0.9),
		},
	}
}

func compliantDocs() []compliance.DocumentRecord {
	return []compliance.DocumentRecord{profileDoc(), pastPerformanceDoc(), pricingDoc()}
}

// setField replaces or appends a field in doc.
func setField(doc *compliance.DocumentRecord, f compliance.ExtractedField) {
	for i := range doc.Fields {
		if doc.Fields[i].Name == f.Name {
			doc.Fields[i] = f
			return
		}
	}
	doc.Fields = append(doc.Fields, f)
}

func removeField(doc *compliance.DocumentRecord, name string) {
	out := doc.Fields[:0]
	for _, f := range doc.Fields {
		if f.Name != name {
			out = append(out, f)
		}
	}
	doc.Fields = out
}

func evaluate(docs []compliance.DocumentRecord) compliance.ComplianceVerdict {
	ev := &Evaluator{Pack: DefaultPack(), Now: fixedClock}
	v, err := ev.Evaluate(docs)
	if err != nil {
		panic(err)
	}
	return v
}

func findingFor(v compliance.ComplianceVerdict, id string) compliance.RuleFinding {
	f, _ := v.Finding(id)
	return f
}

func hasCode(f compliance.RuleFinding, code compliance.ProblemCode) bool {
	for _, p := range f.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}
