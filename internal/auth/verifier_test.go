package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/workgate/internal/types"
)

var testSigningKey = []byte("test-signing-key")

func mintTestToken(t *testing.T, scopes []string, lifetime time.Duration) string {
	t.Helper()
	token, err := MintToken(&types.Claims{
		UserID: "user-1",
		Email:  "user@example.com",
		Scopes: scopes,
	}, testSigningKey, lifetime)
	require.NoError(t, err)
	return token
}

func newLocalVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(&VerifierConfig{SigningKey: testSigningKey})
	require.NoError(t, err)
	return v
}

func TestVerifyLocalOnly(t *testing.T) {
	v := newLocalVerifier(t)

	t.Run("valid token yields claims", func(t *testing.T) {
		token := mintTestToken(t, []string{"workplace:read:google_drive"}, time.Hour)

		claims, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, "user@example.com", claims.Email)
		require.Equal(t, []string{"workplace:read:google_drive"}, claims.Scopes)
		require.True(t, claims.ExpiresAt.After(time.Now()))
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := mintTestToken(t, []string{"workplace:read"}, -time.Minute)

		_, err := v.Verify(context.Background(), token)
		require.Error(t, err)
		require.ErrorIs(t, err, types.ErrInvalidToken)
		require.Equal(t, types.ErrorKindAuth, types.KindOf(err))
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not-a-jwt")
		require.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("wrong signing key rejected", func(t *testing.T) {
		other, err := MintToken(&types.Claims{UserID: "user-1"}, []byte("other-key"), time.Hour)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), other)
		require.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "")
		require.ErrorIs(t, err, types.ErrInvalidToken)
	})
}

func TestVerifyProviderRoundTrip(t *testing.T) {
	newVerifierFor := func(t *testing.T, srv *httptest.Server) *Verifier {
		t.Helper()
		v, err := NewVerifier(&VerifierConfig{
			ProviderBaseURL: srv.URL,
			ProjectID:       "proj-1",
			SigningKey:      testSigningKey,
		})
		require.NoError(t, err)
		return v
	}

	t.Run("recognized token passes both checks", func(t *testing.T) {
		var sawAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		token := mintTestToken(t, []string{"workplace:read"}, time.Hour)
		claims, err := newVerifierFor(t, srv).Verify(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, "Bearer "+token, sawAuth)
	})

	t.Run("provider rejection is invalid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		token := mintTestToken(t, []string{"workplace:read"}, time.Hour)
		_, err := newVerifierFor(t, srv).Verify(context.Background(), token)
		require.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("provider 5xx is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		token := mintTestToken(t, []string{"workplace:read"}, time.Hour)
		_, err := newVerifierFor(t, srv).Verify(context.Background(), token)
		require.ErrorIs(t, err, types.ErrProviderUnreachable)
		require.False(t, errors.Is(err, types.ErrInvalidToken))
	})

	t.Run("transport failure is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		token := mintTestToken(t, []string{"workplace:read"}, time.Hour)
		_, err := newVerifierFor(t, srv).Verify(context.Background(), token)
		require.ErrorIs(t, err, types.ErrProviderUnreachable)
	})
}

func TestNewVerifierValidation(t *testing.T) {
	_, err := NewVerifier(nil)
	require.Error(t, err)

	_, err = NewVerifier(&VerifierConfig{})
	require.Error(t, err)
}
