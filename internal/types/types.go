package types

import (
	"time"
)

// Config represents the gateway configuration loaded from environment variables
type Config struct {
	// Identity provider configuration
	IdentityProviderBaseURL string `json:"identity_provider_base_url" env:"IDP_BASE_URL,default=https://api.descope.com"`
	IdentityProviderProject string `json:"identity_provider_project" env:"IDP_PROJECT_ID"`
	OIDCIssuer              string `json:"oidc_issuer" env:"OIDC_ISSUER"`
	OIDCClientID            string `json:"oidc_client_id" env:"OIDC_CLIENT_ID"`

	// Internal token signing
	JWTSecretKey       string `json:"jwt_secret_key" env:"JWT_SECRET_KEY,required=true"`
	JWTExpirationHours int    `json:"jwt_expiration_hours" env:"JWT_EXPIRATION_HOURS,default=24"`

	// Audit gateway (external observability collector)
	AuditGatewayURL  string        `json:"audit_gateway_url" env:"AUDIT_GATEWAY_URL"`
	AuditAPIKey      string        `json:"audit_api_key" env:"AUDIT_API_KEY"`
	AuditQueueSize   int           `json:"audit_queue_size" env:"AUDIT_QUEUE_SIZE,default=256"`
	AuditRateLimit   float64       `json:"audit_rate_limit" env:"AUDIT_RATE_LIMIT,default=50"`
	AuditHTTPTimeout time.Duration `json:"audit_http_timeout" env:"AUDIT_HTTP_TIMEOUT,default=10s"`

	// HTTP server configuration
	ServerHost            string        `json:"server_host" env:"GATEWAY_HOST,default=localhost"`
	ServerPort            int           `json:"server_port" env:"GATEWAY_PORT,default=8080"`
	ServerReadTimeout     time.Duration `json:"server_read_timeout" env:"GATEWAY_READ_TIMEOUT,default=30s"`
	ServerWriteTimeout    time.Duration `json:"server_write_timeout" env:"GATEWAY_WRITE_TIMEOUT,default=30s"`
	ServerIdleTimeout     time.Duration `json:"server_idle_timeout" env:"GATEWAY_IDLE_TIMEOUT,default=120s"`
	ServerShutdownTimeout time.Duration `json:"server_shutdown_timeout" env:"GATEWAY_SHUTDOWN_TIMEOUT,default=30s"`
	ServerMaxHeaderBytes  int           `json:"server_max_header_bytes" env:"GATEWAY_MAX_HEADER_BYTES,default=1048576"`
	EnableAccessLogging   bool          `json:"enable_access_logging" env:"GATEWAY_ACCESS_LOG,default=true"`

	// Search defaults and per-source dispatch
	DefaultMaxResults int           `json:"default_max_results" env:"SEARCH_DEFAULT_MAX_RESULTS,default=10"`
	SourceTimeout     time.Duration `json:"source_timeout" env:"SEARCH_SOURCE_TIMEOUT,default=10s"`
	SearchToolName    string        `json:"search_tool_name" env:"SEARCH_TOOL_NAME,default=workplace_search"`

	// Credential store backend: "static" or "secretsmanager"
	CredentialBackend      string `json:"credential_backend" env:"CREDENTIAL_BACKEND,default=static"`
	CredentialSecretPrefix string `json:"credential_secret_prefix" env:"CREDENTIAL_SECRET_PREFIX,default=workgate/credentials"`
	AWSRegion              string `json:"aws_region" env:"AWS_REGION,default=us-east-1"`

	// Local usage statistics
	StatsDBPath string `json:"stats_db_path" env:"STATS_DB_PATH"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=workgate"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}

// ServerName and ServerVersion identify this gateway to clients and the audit collector.
const (
	ServerName    = "workplace-search"
	ServerVersion = "1.0.0"
)
