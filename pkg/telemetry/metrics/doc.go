// Package metrics exposes Prometheus metrics for the onboarding service.
//
// # Metrics Categories
//
//   - HTTP: request count, duration and rate-limit rejections
//   - Pipeline: ingested documents, PII redactions by type, analyses and
//     verdicts
//   - Rules: finding status per rule, abstentions per reason, rule pack
//     reloads and the active pack version
//   - Assistant: AI collaborator calls, latency and errors
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRuleOutcome("R1", "pass")
//	mux.Handle("/metrics", collector.Handler())
//
// All metric names are prefixed with the configured namespace and subsystem
// (getgsa_onboarding_ by default).
package metrics
