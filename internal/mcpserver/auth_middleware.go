package mcpserver

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/types"
)

// AuthMiddleware verifies bearer tokens on every request except the exempt
// discovery endpoints and injects the verified claims into the request
// context for downstream handlers.
type AuthMiddleware struct {
	verifier    auth.ClaimsVerifier
	exemptPaths map[string]bool
	logger      *log.Logger
}

// NewAuthMiddleware creates authentication middleware backed by a verifier
func NewAuthMiddleware(verifier auth.ClaimsVerifier) (*AuthMiddleware, error) {
	if verifier == nil {
		return nil, fmt.Errorf("claims verifier cannot be nil")
	}

	return &AuthMiddleware{
		verifier: verifier,
		exemptPaths: map[string]bool{
			"/health":              true,
			"/mcp/info":            true,
			"/auth/token/exchange": true,
		},
		logger: log.New(os.Stdout, "[AuthMiddleware] ", log.LstdFlags),
	}, nil
}

// Middleware wraps an HTTP handler with bearer token verification
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			m.logger.Printf("Rejected %s %s: %v", r.Method, r.URL.Path, err)
			writeGatewayError(w, types.NewAuthError("missing or malformed bearer token", types.ErrInvalidToken))
			return
		}

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Printf("Token verification failed for %s %s: %v", r.Method, r.URL.Path, err)
			writeGatewayError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// extractBearerToken pulls the token out of the Authorization header
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("authorization header must use the Bearer scheme")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}
	return token, nil
}
