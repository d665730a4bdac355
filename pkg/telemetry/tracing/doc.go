// Package tracing provides OpenTelemetry tracing for the ingest and analysis
// pipeline.
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise every span is a noop. The analysis pipeline opens one span per
// stage (redact, extract, evaluate, synthesize) and tags them with the
// attribute helpers in this package. Incoming W3C trace context is honored
// by HTTPMiddleware and forwarded to the assistant provider with Inject.
//
// Usage:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "analysis.evaluate")
//	defer span.End()
package tracing
