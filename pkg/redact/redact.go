package redact

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"getgsa/onboarding/pkg/compliance"
)

// PII types recognized by the redactor.
const (
	TypeEmail = "email"
	TypePhone = "phone"
	TypeSSN   = "ssn"
)

// Placeholders substituted for redacted values.
const (
	EmailPlaceholder = "[EMAIL_REDACTED]"
	PhonePlaceholder = "[PHONE_REDACTED]"
	SSNPlaceholder   = "[SSN_REDACTED]"
)

type pattern struct {
	kind        string
	re          *regexp.Regexp
	placeholder string
}

// Patterns run in this order. Emails go first so the digits of an address
// are never taken for a phone number. Bare nine-digit numbers are left alone
// because DUNS numbers have that shape.
var defaultPatterns = []pattern{
	{
		kind:        TypeEmail,
		re:          regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: EmailPlaceholder,
	},
	{
		kind:        TypeSSN,
		re:          regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		placeholder: SSNPlaceholder,
	},
	{
		kind:        TypePhone,
		re:          regexp.MustCompile(`(?:\+?\b1[-.\s]?)?(?:\(\d{3}\)|\b\d{3})[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		placeholder: PhonePlaceholder,
	},
}

// Fingerprinter computes keyed HMAC-SHA256 fingerprints of PII values, so a
// persisted manifest can be checked against text without holding the value.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter returns a fingerprinter keyed by secret.
func NewFingerprinter(secret string) *Fingerprinter {
	return &Fingerprinter{key: []byte(secret)}
}

// Fingerprint returns the hex HMAC of the normalized value.
func (f *Fingerprinter) Fingerprint(value string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(normalize(value)))
	return hex.EncodeToString(mac.Sum(nil))
}

// normalize removes the formatting differences the patterns tolerate, so
// "555-123-4567" and "555.123.4567" share a fingerprint.
func normalize(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '.', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Result is the outcome of redacting one text.
type Result struct {
	Text     string
	Manifest compliance.PIIManifest
}

// Redactor finds and replaces personal data in free text. It is safe for
// concurrent use.
type Redactor struct {
	patterns      []pattern
	fingerprinter *Fingerprinter
}

// New returns a redactor whose manifests are fingerprinted with secret.
func New(secret string) *Redactor {
	return &Redactor{
		patterns:      defaultPatterns,
		fingerprinter: NewFingerprinter(secret),
	}
}

// Fingerprinter returns the fingerprinter used for manifest entries.
func (r *Redactor) Fingerprinter() *Fingerprinter {
	return r.fingerprinter
}

// Redact replaces every recognized value in text with its placeholder. The
// manifest lists each distinct value once, in the order first found, with
// the raw value still attached.
func (r *Redactor) Redact(text string) Result {
	var entries []compliance.PIIEntry
	seen := make(map[string]bool)
	out := text
	for _, p := range r.patterns {
		out = p.re.ReplaceAllStringFunc(out, func(match string) string {
			key := p.kind + "\x00" + match
			if !seen[key] {
				seen[key] = true
				entries = append(entries, r.entry(p.kind, match))
			}
			return p.placeholder
		})
	}
	if entries == nil {
		entries = []compliance.PIIEntry{}
	}
	return Result{Text: out, Manifest: compliance.PIIManifest{Entries: entries}}
}

// RedactString returns text with every recognized value replaced.
func (r *Redactor) RedactString(text string) string {
	for _, p := range r.patterns {
		text = p.re.ReplaceAllString(text, p.placeholder)
	}
	return text
}

// Detect lists the values that would be redacted from text without changing
// it. Placeholders are never detected.
func (r *Redactor) Detect(text string) []compliance.PIIEntry {
	var entries []compliance.PIIEntry
	seen := make(map[string]bool)
	remaining := text
	for _, p := range r.patterns {
		for _, match := range p.re.FindAllString(remaining, -1) {
			key := p.kind + "\x00" + match
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, r.entry(p.kind, match))
		}
		// Mirror Redact so a later pattern never sees text an earlier one claimed.
		remaining = p.re.ReplaceAllString(remaining, p.placeholder)
	}
	return entries
}

// Contains reports whether text still holds any recognized value.
func (r *Redactor) Contains(text string) bool {
	for _, p := range r.patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

func (r *Redactor) entry(kind, value string) compliance.PIIEntry {
	return compliance.PIIEntry{
		Type:        kind,
		Value:       value,
		Fingerprint: r.fingerprinter.Fingerprint(value),
		Length:      len(value),
	}
}

// StripValues returns a copy of m without raw values, fit for storage.
func StripValues(m compliance.PIIManifest) compliance.PIIManifest {
	out := compliance.PIIManifest{Entries: make([]compliance.PIIEntry, len(m.Entries))}
	for i, e := range m.Entries {
		e.Value = ""
		out.Entries[i] = e
	}
	return out
}
