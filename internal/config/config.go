package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ca-srg/workgate/internal/types"
	env "github.com/netflix/go-env"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if err := validateServerConfig(config); err != nil {
		return fmt.Errorf("server configuration validation failed: %w", err)
	}

	if err := validateAuthConfig(config); err != nil {
		return fmt.Errorf("auth configuration validation failed: %w", err)
	}

	if err := validateSearchConfig(config); err != nil {
		return fmt.Errorf("search configuration validation failed: %w", err)
	}

	if config.AuditGatewayURL != "" {
		if err := validateAuditConfig(config); err != nil {
			return fmt.Errorf("audit configuration validation failed: %w", err)
		}
	}

	switch config.CredentialBackend {
	case "static", "secretsmanager":
	default:
		return fmt.Errorf("CREDENTIAL_BACKEND must be 'static' or 'secretsmanager', got: %s", config.CredentialBackend)
	}

	return nil
}

func validateServerConfig(config *Config) error {
	if config.ServerPort < 1 || config.ServerPort > 65535 {
		return fmt.Errorf("GATEWAY_PORT must be between 1 and 65535")
	}

	if config.ServerHost == "" {
		return fmt.Errorf("GATEWAY_HOST cannot be empty")
	}

	if net.ParseIP(config.ServerHost) == nil && config.ServerHost != "localhost" && !isValidHostname(config.ServerHost) {
		return fmt.Errorf("GATEWAY_HOST must be a valid IP address or hostname: %s", config.ServerHost)
	}

	if config.ServerReadTimeout <= 0 {
		return fmt.Errorf("GATEWAY_READ_TIMEOUT must be greater than 0")
	}
	if config.ServerWriteTimeout <= 0 {
		return fmt.Errorf("GATEWAY_WRITE_TIMEOUT must be greater than 0")
	}
	if config.ServerIdleTimeout <= 0 {
		return fmt.Errorf("GATEWAY_IDLE_TIMEOUT must be greater than 0")
	}
	if config.ServerShutdownTimeout <= 0 {
		return fmt.Errorf("GATEWAY_SHUTDOWN_TIMEOUT must be greater than 0")
	}

	if config.ServerMaxHeaderBytes <= 0 {
		return fmt.Errorf("GATEWAY_MAX_HEADER_BYTES must be greater than 0")
	}
	if config.ServerMaxHeaderBytes > 10<<20 { // 10MB limit
		return fmt.Errorf("GATEWAY_MAX_HEADER_BYTES cannot exceed 10MB")
	}

	return nil
}

func validateAuthConfig(config *Config) error {
	if config.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY cannot be empty")
	}

	if config.JWTExpirationHours < 1 {
		config.JWTExpirationHours = 1
	}
	if config.JWTExpirationHours > 168 {
		config.JWTExpirationHours = 168
	}

	if config.IdentityProviderBaseURL != "" {
		parsed, err := url.Parse(config.IdentityProviderBaseURL)
		if err != nil {
			return fmt.Errorf("invalid IDP_BASE_URL format: %w", err)
		}
		if !strings.HasPrefix(parsed.Scheme, "http") {
			return fmt.Errorf("IDP_BASE_URL scheme must be http or https")
		}
		if parsed.Host == "" {
			return fmt.Errorf("IDP_BASE_URL must include a valid host")
		}
	}

	// OIDC verification is optional; when an issuer is set a client ID is required
	if config.OIDCIssuer != "" && config.OIDCClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC_ISSUER is set")
	}

	return nil
}

func validateSearchConfig(config *Config) error {
	if config.DefaultMaxResults < 1 {
		config.DefaultMaxResults = 1
	}
	if config.DefaultMaxResults > types.MaxResultsLimit {
		config.DefaultMaxResults = types.MaxResultsLimit
	}

	if config.SourceTimeout <= 0 {
		return fmt.Errorf("SEARCH_SOURCE_TIMEOUT must be greater than 0")
	}

	if config.SearchToolName == "" {
		return fmt.Errorf("SEARCH_TOOL_NAME cannot be empty")
	}
	if !isValidToolName(config.SearchToolName) {
		return fmt.Errorf("SEARCH_TOOL_NAME contains invalid characters: %s", config.SearchToolName)
	}

	return nil
}

func validateAuditConfig(config *Config) error {
	parsed, err := url.Parse(config.AuditGatewayURL)
	if err != nil {
		return fmt.Errorf("invalid AUDIT_GATEWAY_URL format: %w", err)
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return fmt.Errorf("AUDIT_GATEWAY_URL scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("AUDIT_GATEWAY_URL must include a valid host")
	}

	if config.AuditQueueSize < 1 {
		config.AuditQueueSize = 1
	}
	if config.AuditQueueSize > 10000 {
		config.AuditQueueSize = 10000
	}

	if config.AuditRateLimit <= 0 {
		return fmt.Errorf("AUDIT_RATE_LIMIT must be greater than 0")
	}
	if config.AuditRateLimit > 1000 {
		return fmt.Errorf("AUDIT_RATE_LIMIT cannot exceed 1000 requests/second")
	}

	if config.AuditHTTPTimeout <= 0 {
		return fmt.Errorf("AUDIT_HTTP_TIMEOUT must be greater than 0")
	}

	return nil
}

// isValidHostname checks if a string is a valid hostname
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}

	for _, char := range hostname {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '-' || char == '.') {
			return false
		}
	}

	if strings.HasPrefix(hostname, "-") || strings.HasSuffix(hostname, "-") {
		return false
	}

	return true
}

// isValidToolName checks if a tool name is alphanumeric with underscores
func isValidToolName(name string) bool {
	if len(name) == 0 || len(name) > 100 {
		return false
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '_') {
			return false
		}
	}

	return true
}
