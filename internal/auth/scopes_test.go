package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/workgate/internal/types"
)

func claimsWithScopes(scopes ...string) *types.Claims {
	return &types.Claims{
		UserID:    "user-1",
		Email:     "user@example.com",
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestHasScope(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []string
		required string
		want     bool
	}{
		{
			name:     "exact match",
			scopes:   []string{"workplace:read"},
			required: "workplace:read",
			want:     true,
		},
		{
			name:     "narrower scope satisfies broader requirement",
			scopes:   []string{"workplace:read:google_drive"},
			required: "workplace:read",
			want:     true,
		},
		{
			name:     "narrower scope does not satisfy different capability",
			scopes:   []string{"workplace:read:google_drive"},
			required: "workplace:write",
			want:     false,
		},
		{
			name:     "prefix without delimiter does not match",
			scopes:   []string{"workplace:readonly"},
			required: "workplace:read",
			want:     false,
		},
		{
			name:     "broad scope does not satisfy narrower requirement",
			scopes:   []string{"workplace:read"},
			required: "workplace:read:google_drive",
			want:     false,
		},
		{
			name:     "per-source scope matches its source requirement",
			scopes:   []string{"workplace:read:notion"},
			required: SourceScope("notion"),
			want:     true,
		},
		{
			name:     "no scopes fails closed",
			scopes:   nil,
			required: "workplace:read",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasScope(claimsWithScopes(tt.scopes...), tt.required)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestHasScopeNilClaims(t *testing.T) {
	require.False(t, HasScope(nil, "workplace:read"))
}

func TestSourceScope(t *testing.T) {
	require.Equal(t, "workplace:read:google_drive", SourceScope("google_drive"))
}
