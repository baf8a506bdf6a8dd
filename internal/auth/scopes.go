package auth

import (
	"strings"

	"github.com/ca-srg/workgate/internal/types"
)

// HasScope reports whether the claim set grants the required capability.
// A scope s grants required when s == required or s is required followed by
// a colon-delimited suffix, e.g. scope "workplace:read:google_drive"
// satisfies requirement "workplace:read". Fails closed on nil claims.
func HasScope(claims *types.Claims, required string) bool {
	if claims == nil || required == "" {
		return false
	}

	for _, s := range claims.Scopes {
		if s == required || strings.HasPrefix(s, required+":") {
			return true
		}
	}

	return false
}

// SourceScope builds the per-source capability string gating a search backend
func SourceScope(source string) string {
	return "workplace:read:" + source
}

// ScopeWorkplaceRead is the capability required to invoke workplace search
const ScopeWorkplaceRead = "workplace:read"
