package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/workgate/internal/types"
)

type stubVerifier struct {
	claims *types.Claims
	err    error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*types.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func TestExchange(t *testing.T) {
	t.Run("mints verifiable internal token", func(t *testing.T) {
		external := &stubVerifier{claims: &types.Claims{
			UserID: "user-1",
			Email:  "user@example.com",
			Scopes: []string{"workplace:read:notion"},
		}}

		ex, err := NewExchanger(external, testSigningKey, 2*time.Hour)
		require.NoError(t, err)

		resp, err := ex.Exchange(context.Background(), "provider-token")
		require.NoError(t, err)
		require.Equal(t, "bearer", resp.TokenType)
		require.Equal(t, 7200, resp.ExpiresIn)

		// The issued token must verify locally and round-trip the claims
		v := newLocalVerifier(t)
		claims, err := v.Verify(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, []string{"workplace:read:notion"}, claims.Scopes)
	})

	t.Run("provider rejection propagates as auth error", func(t *testing.T) {
		external := &stubVerifier{err: types.NewAuthError("invalid token", types.ErrInvalidToken)}

		ex, err := NewExchanger(external, testSigningKey, time.Hour)
		require.NoError(t, err)

		_, err = ex.Exchange(context.Background(), "bad-token")
		require.Error(t, err)
		require.Equal(t, types.ErrorKindAuth, types.KindOf(err))
	})

	t.Run("requires external verifier and key", func(t *testing.T) {
		_, err := NewExchanger(nil, testSigningKey, time.Hour)
		require.Error(t, err)

		_, err = NewExchanger(&stubVerifier{}, nil, time.Hour)
		require.Error(t, err)
	})
}

func TestMintTokenNilClaims(t *testing.T) {
	_, err := MintToken(nil, testSigningKey, time.Hour)
	require.Error(t, err)
}
