package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ca-srg/workgate/internal/types"
)

// ClaimsVerifier validates a bearer token and produces a claim set
type ClaimsVerifier interface {
	Verify(ctx context.Context, token string) (*types.Claims, error)
}

// Verifier validates internally-signed bearer tokens. Two checks must both
// pass: a round trip confirming the token is currently recognized by the
// identity provider, and local structural decoding plus signature
// verification against the signing key. No claim set is retained between
// calls.
type Verifier struct {
	keysURL    string
	signingKey []byte
	httpClient *http.Client
	logger     *log.Logger
}

// VerifierConfig contains configuration for token verification
type VerifierConfig struct {
	// ProviderBaseURL and ProjectID locate the identity provider's key
	// endpoint. When both are empty the remote recognition check is skipped
	// and only local verification runs.
	ProviderBaseURL string
	ProjectID       string
	SigningKey      []byte
	HTTPTimeout     time.Duration
}

// NewVerifier creates a token verifier from configuration
func NewVerifier(cfg *VerifierConfig) (*Verifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("verifier configuration is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	v := &Verifier{
		signingKey: cfg.SigningKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.New(os.Stdout, "[TokenVerifier] ", log.LstdFlags),
	}

	if cfg.ProviderBaseURL != "" && cfg.ProjectID != "" {
		v.keysURL = fmt.Sprintf("%s/v1/projects/%s/keys", cfg.ProviderBaseURL, cfg.ProjectID)
	} else {
		v.logger.Printf("WARNING: identity provider not configured, skipping remote token recognition check")
	}

	return v, nil
}

// tokenClaims is the JWT payload shape minted by the token exchange endpoint
type tokenClaims struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Verify validates the token and extracts its claim set. Provider rejection
// and local verification failure both surface as an invalid-token
// authentication error; provider availability failures surface as a distinct
// provider-unreachable cause for retry and alerting policy.
func (v *Verifier) Verify(ctx context.Context, token string) (*types.Claims, error) {
	if token == "" {
		return nil, types.NewAuthError("missing bearer token", types.ErrInvalidToken)
	}

	if v.keysURL != "" {
		if err := v.checkProviderRecognition(ctx, token); err != nil {
			return nil, err
		}
	}

	claims, err := v.decodeAndVerify(token)
	if err != nil {
		v.logger.Printf("local token verification failed: %v", err)
		return nil, types.NewAuthError("invalid token", types.ErrInvalidToken)
	}

	return claims, nil
}

// checkProviderRecognition performs the network round trip confirming the
// token is currently recognized by the identity provider.
func (v *Verifier) checkProviderRecognition(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keysURL, nil)
	if err != nil {
		return types.NewInternalError(fmt.Errorf("failed to build provider request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Printf("identity provider unreachable: %v", err)
		return types.NewAuthError("token verification unavailable", types.ErrProviderUnreachable)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			v.logger.Printf("Failed to close provider response body: %v", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= http.StatusInternalServerError:
		v.logger.Printf("identity provider returned %s", resp.Status)
		return types.NewAuthError("token verification unavailable", types.ErrProviderUnreachable)
	default:
		v.logger.Printf("identity provider rejected token with status %s", resp.Status)
		return types.NewAuthError("invalid token", types.ErrInvalidToken)
	}
}

// decodeAndVerify parses the token, checks the HMAC signature and expiry,
// and extracts the claim set.
func (v *Verifier) decodeAndVerify(token string) (*types.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("failed to extract token claims")
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("token has no expiry")
	}

	return &types.Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Scopes:    claims.Permissions,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SetLogger sets a custom logger for the verifier
func (v *Verifier) SetLogger(logger *log.Logger) {
	v.logger = logger
}
