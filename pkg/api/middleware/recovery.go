package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// error body. The panic and stack are logged but never sent to the client.
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", logging.GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				types.WriteError(w, http.StatusInternalServerError,
					types.NewServerError("An internal error occurred. Please try again later."))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
