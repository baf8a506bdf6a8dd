package credentials

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by the
// store, extracted for testing.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore resolves per-user backend credentials from AWS Secrets
// Manager. Secrets are named <prefix>/<user_id>/<source>.
type SecretsManagerStore struct {
	client SecretsManagerAPI
	prefix string
	logger *log.Logger
}

// NewSecretsManagerStore creates a Secrets Manager-backed credential store
func NewSecretsManagerStore(ctx context.Context, region, prefix string) (*SecretsManagerStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewSecretsManagerStoreWithClient(secretsmanager.NewFromConfig(awsCfg), prefix), nil
}

// NewSecretsManagerStoreWithClient creates a store with an injected client
func NewSecretsManagerStoreWithClient(client SecretsManagerAPI, prefix string) *SecretsManagerStore {
	return &SecretsManagerStore{
		client: client,
		prefix: prefix,
		logger: log.New(os.Stdout, "[CredentialStore] ", log.LstdFlags),
	}
}

// Resolve fetches the credential for the (user, source) pair
func (s *SecretsManagerStore) Resolve(ctx context.Context, userID, source string) (string, error) {
	secretID := fmt.Sprintf("%s/%s/%s", s.prefix, userID, source)

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return "", &NotFoundError{UserID: userID, Source: source}
		}
		return "", fmt.Errorf("failed to fetch secret %s: %w", secretID, err)
	}

	if out.SecretString == nil || *out.SecretString == "" {
		return "", &NotFoundError{UserID: userID, Source: source}
	}

	return *out.SecretString, nil
}
