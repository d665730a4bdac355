package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued and accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
}

type contextKey string

const claimsKey contextKey = "auth_claims"

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the authenticated claims from ctx.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
