package auth

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/ca-srg/workgate/internal/types"
)

// Exchanger verifies an external identity-provider token and mints an
// internally-signed bearer token carrying the same claims.
type Exchanger struct {
	external   ClaimsVerifier
	signingKey []byte
	lifetime   time.Duration
	logger     *log.Logger
}

// NewExchanger creates a token exchanger. The external verifier validates
// the inbound provider token before an internal token is issued.
func NewExchanger(external ClaimsVerifier, signingKey []byte, lifetime time.Duration) (*Exchanger, error) {
	if external == nil {
		return nil, fmt.Errorf("external verifier is required")
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	return &Exchanger{
		external:   external,
		signingKey: signingKey,
		lifetime:   lifetime,
		logger:     log.New(os.Stdout, "[TokenExchange] ", log.LstdFlags),
	}, nil
}

// Exchange validates the provider token and returns an internal bearer token
// with its lifetime in seconds.
func (e *Exchanger) Exchange(ctx context.Context, providerToken string) (*types.TokenExchangeResponse, error) {
	claims, err := e.external.Verify(ctx, providerToken)
	if err != nil {
		e.logger.Printf("provider token verification failed: %v", err)
		if types.KindOf(err) == types.ErrorKindAuth {
			return nil, err
		}
		return nil, types.NewAuthError("token exchange failed", types.ErrInvalidToken)
	}

	token, err := MintToken(claims, e.signingKey, e.lifetime)
	if err != nil {
		return nil, types.NewInternalError(fmt.Errorf("failed to sign internal token: %w", err))
	}

	e.logger.Printf("issued internal token for user %s (lifetime %s)", claims.UserID, e.lifetime)

	return &types.TokenExchangeResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(e.lifetime.Seconds()),
	}, nil
}

// MintToken signs an internal HS256 bearer token for the given claim set
func MintToken(claims *types.Claims, signingKey []byte, lifetime time.Duration) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("claims cannot be nil")
	}

	now := time.Now()
	payload := tokenClaims{
		Email:       claims.Email,
		Permissions: claims.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(signingKey)
}

// OIDCVerifier validates external ID tokens against an OIDC provider using
// discovery and the provider's published keys.
type OIDCVerifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	logger   *log.Logger
}

// NewOIDCVerifier creates an OIDC-backed external token verifier
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer URL is required for OIDC discovery")
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OIDCVerifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		logger:   log.New(os.Stdout, "[OIDCVerifier] ", log.LstdFlags),
	}, nil
}

// Verify validates the ID token and extracts a claim set
func (o *OIDCVerifier) Verify(ctx context.Context, token string) (*types.Claims, error) {
	idToken, err := o.verifier.Verify(ctx, token)
	if err != nil {
		o.logger.Printf("ID token verification failed: %v", err)
		return nil, types.NewAuthError("invalid token", types.ErrInvalidToken)
	}

	var payload struct {
		Email       string   `json:"email"`
		Permissions []string `json:"permissions"`
	}
	if err := idToken.Claims(&payload); err != nil {
		return nil, types.NewAuthError("failed to extract claims", types.ErrInvalidToken)
	}

	claims := &types.Claims{
		UserID:    idToken.Subject,
		Email:     payload.Email,
		Scopes:    payload.Permissions,
		ExpiresAt: idToken.Expiry,
	}

	// Some providers omit email from the ID token; fall back to userinfo
	if claims.Email == "" {
		userInfo, err := o.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		if err == nil {
			claims.Email = userInfo.Email
		}
	}

	return claims, nil
}
