// Package server provides the HTTP server of the onboarding API.
//
// This package ties together the handlers, middleware, health checks and
// metrics endpoint, and manages the server lifecycle.
//
// # Basic Usage
//
//	srv, err := server.NewServer(server.Options{
//	    Config:   cfg,
//	    Analyzer: svc,
//	    Store:    st,
//	    Registry: registry,
//	    Tokens:   tokens,
//	    Metrics:  collector,
//	    Version:  version,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled or the process receives SIGTERM or
// SIGINT, then shuts down gracefully within server.shutdown_timeout.
//
// # Routes
//
//   - POST /api/v1/ingest - validate, redact and store documents
//   - POST /api/v1/analyze - run the analysis for a request
//   - GET /api/v1/analyze/{id} - stored request status and result
//   - GET /api/v1/rules - active rule pack
//   - GET /health - liveness probe (always 200)
//   - GET /api/v1/healthz - readiness probe (storage ping, 503 on failure)
//   - GET /version - build and rule pack version
//   - GET /metrics - Prometheus metrics, when enabled
//
// Health, version and metrics paths are public: they skip authentication
// and rate limiting.
//
// # Middleware Chain
//
// Requests pass through, outermost first: recovery, logging, request ID,
// tracing, CORS, rate limit (when limits.rate_limit_per_minute > 0) and
// bearer auth (when security.auth.enabled).
package server
