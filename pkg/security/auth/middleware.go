package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/telemetry/logging"
)

// DefaultPublicPaths are reachable without a token.
var DefaultPublicPaths = []string{
	"/health",
	"/api/v1/healthz",
	"/metrics",
	"/version",
}

// Middleware requires a valid bearer token on every non-public path.
type Middleware struct {
	tokens      *TokenManager
	publicPaths map[string]bool
	logger      *slog.Logger
}

// NewMiddleware creates the middleware. publicPaths defaults to
// DefaultPublicPaths when nil.
func NewMiddleware(tokens *TokenManager, publicPaths []string) *Middleware {
	if publicPaths == nil {
		publicPaths = DefaultPublicPaths
	}
	m := &Middleware{
		tokens:      tokens,
		publicPaths: make(map[string]bool, len(publicPaths)),
		logger:      slog.Default().With("component", "auth"),
	}
	for _, p := range publicPaths {
		m.publicPaths[p] = true
	}
	return m
}

// Handle wraps next with bearer authentication.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || m.publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			types.WriteError(w, http.StatusUnauthorized, types.NewAuthenticationError("Missing or malformed Authorization header (expected 'Bearer <token>')"))
			return
		}
		if m.tokens == nil {
			types.WriteError(w, http.StatusUnauthorized, types.NewAuthenticationError("Authentication not configured"))
			return
		}

		claims, err := m.tokens.Validate(token)
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected bearer token",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			types.WriteError(w, http.StatusUnauthorized, types.NewAuthenticationError("Invalid or expired token"))
			return
		}

		ctx := WithClaims(r.Context(), claims)
		ctx = logging.WithSubject(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
