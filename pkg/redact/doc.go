// Package redact removes personal data (email addresses, phone numbers and
// SSNs) from document text before anything else sees it.
//
// Redact returns the redacted text together with a manifest of what was
// removed. Manifest entries carry the raw value in memory only; the JSON form
// keeps a keyed HMAC fingerprint and the value length, which is enough for
// the hygiene rule to confirm that a value no longer appears in the text.
//
// Basic usage:
//
//	r := redact.New(secret)
//	res := r.Redact("Call 555-123-4567")
//	// res.Text == "Call [PHONE_REDACTED]"
package redact
