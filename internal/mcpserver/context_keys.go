package mcpserver

import (
	"context"

	"github.com/ca-srg/workgate/internal/types"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// WithClaims attaches verified caller claims to the request context
func WithClaims(ctx context.Context, claims *types.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts verified caller claims set by the auth middleware
func ClaimsFromContext(ctx context.Context) (*types.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*types.Claims)
	return claims, ok
}
