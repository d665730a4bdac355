package redact

import (
	"encoding/json"
	"strings"
	"testing"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/rules"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantTypes []string
	}{
		{
			name:      "phone",
			input:     "Call 555-123-4567 today",
			want:      "Call [PHONE_REDACTED] today",
			wantTypes: []string{TypePhone},
		},
		{
			name:      "parenthesized phone",
			input:     "Phone: (555) 123-4567",
			want:      "Phone: [PHONE_REDACTED]",
			wantTypes: []string{TypePhone},
		},
		{
			name:      "email",
			input:     "POC: jane.smith@acme.com",
			want:      "POC: [EMAIL_REDACTED]",
			wantTypes: []string{TypeEmail},
		},
		{
			name:      "ssn",
			input:     "SSN 123-45-6789",
			want:      "SSN [SSN_REDACTED]",
			wantTypes: []string{TypeSSN},
		},
		{
			name:      "mixed",
			input:     "jane@acme.com or 555.987.6543",
			want:      "[EMAIL_REDACTED] or [PHONE_REDACTED]",
			wantTypes: []string{TypeEmail, TypePhone},
		},
		{
			name:  "identifiers untouched",
			input: "UEI: ABC123DEF456 DUNS: 123456789 NAICS: 541511",
			want:  "UEI: ABC123DEF456 DUNS: 123456789 NAICS: 541511",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	r := New("secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Redact(tt.input)
			if res.Text != tt.want {
				t.Errorf("Redact() text = %q, want %q", res.Text, tt.want)
			}
			if len(res.Manifest.Entries) != len(tt.wantTypes) {
				t.Fatalf("got %d entries, want %d", len(res.Manifest.Entries), len(tt.wantTypes))
			}
			for i, e := range res.Manifest.Entries {
				if e.Type != tt.wantTypes[i] {
					t.Errorf("entry %d type = %s, want %s", i, e.Type, tt.wantTypes[i])
				}
				if e.Fingerprint == "" || e.Length != len(e.Value) {
					t.Errorf("entry %d = %+v", i, e)
				}
			}
		})
	}
}

func TestRedactDeduplicates(t *testing.T) {
	res := New("k").Redact("555-123-4567, again 555-123-4567")
	if len(res.Manifest.Entries) != 1 {
		t.Errorf("got %d entries, want 1", len(res.Manifest.Entries))
	}
	if strings.Contains(res.Text, "555") {
		t.Errorf("text still has the number: %q", res.Text)
	}
}

func TestRedactIdempotent(t *testing.T) {
	r := New("k")
	once := r.Redact("mail bob@example.org, call +1 555 123 4567").Text
	twice := r.Redact(once)
	if twice.Text != once {
		t.Errorf("second pass changed text: %q -> %q", once, twice.Text)
	}
	if len(twice.Manifest.Entries) != 0 {
		t.Errorf("placeholders detected as PII: %+v", twice.Manifest.Entries)
	}
}

func TestFingerprint(t *testing.T) {
	a := NewFingerprinter("one")
	b := NewFingerprinter("two")

	if a.Fingerprint("555-123-4567") != a.Fingerprint("555.123.4567") {
		t.Error("formatting should not change the fingerprint")
	}
	if a.Fingerprint("555-123-4567") == b.Fingerprint("555-123-4567") {
		t.Error("fingerprints must depend on the key")
	}
	if a.Fingerprint("555-123-4567") == a.Fingerprint("555-123-4568") {
		t.Error("different values share a fingerprint")
	}
}

func TestManifestJSONOmitsValues(t *testing.T) {
	res := New("k").Redact("jane@acme.com")
	data, err := json.Marshal(res.Manifest)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "jane") {
		t.Errorf("manifest JSON leaks the value: %s", data)
	}

	stripped := StripValues(res.Manifest)
	if stripped.Entries[0].Value != "" {
		t.Error("StripValues kept the value")
	}
	if res.Manifest.Entries[0].Value == "" {
		t.Error("StripValues modified its input")
	}
}

func TestDetect(t *testing.T) {
	r := New("k")
	text := "reach me at 555-123-4567 or [PHONE_REDACTED]"
	found := r.Detect(text)
	if len(found) != 1 || found[0].Value != "555-123-4567" {
		t.Fatalf("Detect() = %+v", found)
	}
	if !r.Contains(text) {
		t.Error("Contains() = false")
	}
	if r.Contains("[PHONE_REDACTED]") {
		t.Error("placeholder reported as PII")
	}
}

// A redactor plugs into the hygiene rule as both Detector and Fingerprinter.
func TestHygieneWithStoredManifest(t *testing.T) {
	r := New("k")
	res := r.Redact("Phone: 555-123-4567")

	var _ rules.Detector = r
	var _ rules.Fingerprinter = r.Fingerprinter()

	leaked := compliance.DocumentRecord{
		ID:                       "d1",
		Name:                     "profile.txt",
		Classification:           compliance.ClassProfile,
		ClassificationConfidence: 0.95,
		RedactedText:             "Phone: 555-123-4567",
		PIIManifest:              StripValues(res.Manifest),
	}

	ev := rules.NewEvaluator(nil)
	ev.Detector = r
	ev.Fingerprinter = r.Fingerprinter()
	verdict, err := ev.Evaluate([]compliance.DocumentRecord{leaked})
	if err != nil {
		t.Fatal(err)
	}
	f, ok := verdict.Finding(rules.RuleHygiene)
	if !ok || f.Status != compliance.StatusFail {
		t.Fatalf("R5 = %+v", f)
	}
	if strings.Contains(f.Problems[0].Evidence, "555") {
		t.Errorf("evidence repeats the value: %q", f.Problems[0].Evidence)
	}
}
