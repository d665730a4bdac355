package logging

import (
	"log/slog"
	"testing"

	"getgsa/onboarding/pkg/config"
)

func TestRedactString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain", input: "evaluated 5 rules", want: "evaluated 5 rules"},
		{name: "phone", input: "phone 555-123-4567", want: "phone [PHONE_REDACTED]"},
		{name: "email", input: "to jane@acme.com", want: "to [EMAIL_REDACTED]"},
		{name: "bearer", input: "Authorization: Bearer abc.def.ghi", want: "Authorization: Bearer ***"},
		{name: "password", input: "password=hunter2", want: "password: ***"},
		{name: "uei kept", input: "UEI ABC123DEF456", want: "UEI ABC123DEF456"},
	}

	r := NewRedactor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCustomPatterns(t *testing.T) {
	r := NewRedactor([]config.RedactPattern{
		{Name: "case", Pattern: `CASE-\d+`, Replacement: "CASE-***"},
		{Name: "broken", Pattern: `[unclosed`, Replacement: "x"},
	})
	if got := r.RedactString("ref CASE-42"); got != "ref CASE-***" {
		t.Errorf("got %q", got)
	}
}

func TestRedactAttr(t *testing.T) {
	r := NewRedactor(nil)

	if got := r.RedactAttr(slog.String("token", "abc")); got.Value.String() != "***" {
		t.Errorf("sensitive key not masked: %v", got)
	}
	if got := r.RedactAttr(slog.Int("count", 3)); got.Value.Int64() != 3 {
		t.Errorf("int changed: %v", got)
	}
	g := r.RedactAttr(slog.Group("doc", slog.String("poc", "555-123-4567")))
	if g.Value.Kind() != slog.KindGroup {
		t.Fatalf("group lost: %v", g)
	}
	if inner := g.Value.Group()[0]; inner.Value.String() != "[PHONE_REDACTED]" {
		t.Errorf("group member not redacted: %v", inner)
	}
}
