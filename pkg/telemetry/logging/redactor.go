package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/redact"
)

// Redactor removes PII and credentials from log values. Document PII goes
// through the same patterns the ingest path uses, so a log line never shows
// anything the stored text would not.
type Redactor struct {
	pii      *redact.Redactor
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names for credentials that only matter in logs.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

var defaultLogPatterns = []*redactPattern{
	{
		name:        PatternAPIKey,
		regex:       regexp.MustCompile(`(sk-[a-zA-Z0-9_-]+|api[-_]?key[-_:]\s*[a-zA-Z0-9]+)`),
		replacement: "sk-***",
	},
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
	{
		name:        PatternPassword,
		regex:       regexp.MustCompile(`(password|passwd|pwd|secret_key)[:=]\s*[^\s]+`),
		replacement: "$1: ***",
	},
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"auth", "authorization",
	"ssn", "private_key",
}

// NewRedactor returns a redactor with the built-in patterns plus custom ones.
// Custom patterns that fail to compile are skipped.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{
		pii:      redact.New(""),
		patterns: append([]*redactPattern(nil), defaultLogPatterns...),
	}
	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{name: p.Name, regex: re, replacement: p.Replacement})
	}
	return r
}

// RedactString redacts PII and credentials from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return r.pii.RedactString(value)
}

// RedactAttr redacts one attribute, descending into groups. Values under a
// sensitive key are masked whatever their content.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		out := make([]any, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindString:
		if isSensitiveKey(a.Key) && v.String() != "" {
			return slog.String(a.Key, "***")
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
