// Package handlers implements the HTTP endpoints of the onboarding API.
//
// # Endpoints
//
//   - POST /api/v1/ingest - validate, redact and store a document batch
//   - POST /api/v1/analyze - run the compliance analysis for a stored request
//   - GET /api/v1/analyze/{id} - fetch a stored request and its result
//   - GET /api/v1/rules - describe the active rule pack
//
// Liveness, readiness and version endpoints live in the telemetry/health
// package; /metrics is served by the metrics collector.
//
// Handlers depend on the Analyzer interface rather than the concrete
// analysis service so they can be tested against stubs. Every error is
// written as a types.ErrorResponse:
//
//	{"error": {"message": "request not found", "type": "not_found", "code": "request_not_found"}}
package handlers
