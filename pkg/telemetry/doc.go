// Package telemetry groups the observability packages of the onboarding
// service:
//
//   - logging: log/slog setup with request context fields and PII redaction
//   - metrics: Prometheus metrics for the API, pipeline, rules and assistant
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and dependency check endpoints
//
// Log output goes through the same redaction patterns as ingested documents,
// so no log line carries an email address, phone number or SSN that the
// stored text does not.
package telemetry
