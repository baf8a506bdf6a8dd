package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/types"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenScopes []string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long: `
Mint an internally-signed bearer token for development and testing. The token
is signed with JWT_SECRET_KEY and accepted by a gateway running with the same
key.

Examples:
  workgate token --user alice --scope workplace:read:google_drive --scope workplace:read:notion
  workgate token --user bob --scope workplace:read --ttl 2h
`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "dev-user", "Subject user ID")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", []string{auth.ScopeWorkplaceRead}, "Scopes to grant (repeatable)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	signingKey := os.Getenv("JWT_SECRET_KEY")
	if signingKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must be set to mint tokens")
	}
	if tokenTTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	claims := &types.Claims{
		UserID: tokenUserID,
		Email:  tokenEmail,
		Scopes: tokenScopes,
	}

	token, err := auth.MintToken(claims, []byte(signingKey), tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	fmt.Println(token)
	return nil
}
