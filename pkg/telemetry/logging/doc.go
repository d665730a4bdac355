// Package logging configures log/slog for the service.
//
// New returns a plain *slog.Logger; the rest of the code base logs through
// slog directly and never imports a custom logger type. Two handlers wrap the
// JSON or text handler:
//
//   - a context handler that adds request_id, analysis_id and subject from
//     the record's context
//   - when RedactPII is set, a redacting handler that passes every string
//     value through the document PII patterns (emails, phone numbers, SSNs)
//     plus API keys, bearer tokens and password assignments
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactPII: true})
//	ctx := logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "Ingested documents", "count", 3)
package logging
