package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"getgsa/onboarding/pkg/telemetry/metrics"
)

// UnmatchedRoute labels requests no registered route handled.
const UnmatchedRoute = "unmatched"

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// Route records pattern as the matched route of requests served by h.
func Route(pattern string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rh, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			rh.pattern = pattern
		}
		h.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs every request with structured logging and records
// its duration in collector, which may be nil.
//
// Log format (JSON):
//
//	{
//	  "time": "2026-03-01T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/api/v1/analyze",
//	  "route": "POST /api/v1/analyze",
//	  "status": 200,
//	  "latency_ms": 850,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
func LoggingMiddleware(logger *slog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default().With("component", "http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			holder := &routeHolder{}
			ctx := context.WithValue(r.Context(), routeKey{}, holder)

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			latency := time.Since(startTime)
			route := holder.pattern
			if route == "" {
				route = UnmatchedRoute
			}
			collector.RecordHTTPRequest(route, r.Method, rw.statusCode, latency)

			logLevel := slog.LevelInfo
			if rw.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rw.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			// The request ID is set further down the chain, so read it back
			// from the response.
			logger.Log(ctx, logLevel, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"request_id", rw.Header().Get(RequestIDHeader),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}
