// Package middleware provides HTTP middleware for cross-cutting concerns of
// the onboarding API.
//
// # Middleware Chain
//
// The server applies the chain from outermost to innermost:
//
//	handler = Recovery(Logging(RequestID(Tracing(CORS(RateLimit(Auth(mux)))))))
//
//  1. Recovery: recover from panics and return a 500 error body
//  2. Logging: log each request and record HTTP metrics
//  3. RequestID: accept or generate X-Request-ID and add it to the context
//  4. Tracing: extract W3C trace context and start the server span
//  5. CORS: answer preflights and add CORS headers
//  6. RateLimit: per-client token bucket
//  7. Auth: bearer token check (pkg/security/auth)
//
// # Routes
//
// Metrics are labelled by route pattern rather than raw path so stored
// request IDs never become label values. Wrap each registered handler with
// Route so the logging middleware can see which pattern matched:
//
//	mux.Handle("GET /api/v1/analyze/{id}", middleware.Route("GET /api/v1/analyze/{id}", h))
//
// # Errors
//
// Middleware that rejects a request writes the same JSON error envelope as
// the handlers:
//
//	{"error": {"message": "...", "type": "rate_limit_exceeded", "code": "rate_limited"}}
package middleware
