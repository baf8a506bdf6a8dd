package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ca-srg/workgate/internal/audit"
	"github.com/ca-srg/workgate/internal/auth"
	appcfg "github.com/ca-srg/workgate/internal/config"
	"github.com/ca-srg/workgate/internal/credentials"
	"github.com/ca-srg/workgate/internal/mcpserver"
	"github.com/ca-srg/workgate/internal/metrics"
	"github.com/ca-srg/workgate/internal/observability"
	"github.com/ca-srg/workgate/internal/search"
)

var (
	serveHost            string
	servePort            int
	serveEnableAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workplace search gateway server",
	Long: `
Start the gateway HTTP server. The server verifies caller tokens, exposes the
workplace_search tool over MCP-style endpoints and a REST search endpoint,
and ships best-effort audit events to the configured collector.

Configuration is loaded from environment variables and an optional .env file.

Examples:
  workgate serve                      # Start with settings from the environment
  workgate serve --port 9000          # Use custom port
  workgate serve --host 0.0.0.0       # Listen on all interfaces
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host address")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Server port")
	serveCmd.Flags().BoolVar(&serveEnableAccessLog, "access-log", true, "Enable HTTP access logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.ServerHost = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.ServerPort = servePort
	}
	if cmd.Flags().Changed("access-log") {
		cfg.EnableAccessLogging = serveEnableAccessLog
	}

	logger := log.New(os.Stdout, "[Workgate] ", log.LstdFlags)

	shutdownObservability, err := observability.Init(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObservability(shutdownCtx); err != nil {
			logger.Printf("Observability shutdown error: %v", err)
		}
	}()

	if err := metrics.InitWithPath(cfg.StatsDBPath); err != nil {
		logger.Printf("Warning: usage statistics disabled: %v", err)
	} else {
		if err := metrics.InitOTelMetrics(); err != nil {
			logger.Printf("Warning: failed to register invocation gauge: %v", err)
		}
		defer func() { _ = metrics.Close() }()
	}

	verifier, err := auth.NewVerifier(&auth.VerifierConfig{
		ProviderBaseURL: cfg.IdentityProviderBaseURL,
		ProjectID:       cfg.IdentityProviderProject,
		SigningKey:      []byte(cfg.JWTSecretKey),
		HTTPTimeout:     10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	ctx := context.Background()

	registry := search.NewDefaultAdapterRegistry()

	var credStore credentials.Store
	switch cfg.CredentialBackend {
	case "secretsmanager":
		credStore, err = credentials.NewSecretsManagerStore(ctx, cfg.AWSRegion, cfg.CredentialSecretPrefix)
		if err != nil {
			return fmt.Errorf("failed to create Secrets Manager credential store: %w", err)
		}
		logger.Printf("Credential store: AWS Secrets Manager (prefix %s)", cfg.CredentialSecretPrefix)
	default:
		credStore = credentials.NewStaticStoreWithDefaults(registry.Sources())
		logger.Printf("Credential store: static demo credentials")
	}

	searchService, err := search.NewService(registry, credStore, cfg.SourceTimeout)
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}

	var auditSink audit.Sink = audit.NopSink{}
	if cfg.AuditGatewayURL != "" {
		auditClient, err := audit.NewClient(audit.ClientConfig{
			GatewayURL:  cfg.AuditGatewayURL,
			APIKey:      cfg.AuditAPIKey,
			QueueSize:   cfg.AuditQueueSize,
			RateLimit:   int(cfg.AuditRateLimit),
			HTTPTimeout: cfg.AuditHTTPTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create audit client: %w", err)
		}
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := auditClient.Close(drainCtx); err != nil {
				logger.Printf("Audit drain error: %v", err)
			}
		}()
		auditSink = auditClient
		logger.Printf("Audit collector: %s", cfg.AuditGatewayURL)
	} else {
		logger.Printf("WARNING: no audit collector configured, events will be discarded")
	}

	// Token exchange verifies the inbound provider token with OIDC discovery
	// when an issuer is configured; otherwise the standard verifier is used.
	var external auth.ClaimsVerifier = verifier
	if cfg.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return fmt.Errorf("failed to create OIDC verifier: %w", err)
		}
		external = oidcVerifier
		logger.Printf("Token exchange verifier: OIDC issuer %s", cfg.OIDCIssuer)
	}

	exchanger, err := auth.NewExchanger(external, []byte(cfg.JWTSecretKey), time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to create token exchanger: %w", err)
	}

	serverConfig := &mcpserver.ServerConfig{
		Host:              cfg.ServerHost,
		Port:              cfg.ServerPort,
		ReadTimeout:       cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
		MaxHeaderBytes:    cfg.ServerMaxHeaderBytes,
		ShutdownTimeout:   cfg.ServerShutdownTimeout,
		EnableAccessLog:   cfg.EnableAccessLogging,
		DefaultMaxResults: cfg.DefaultMaxResults,
	}

	server, err := mcpserver.NewServer(serverConfig, verifier, searchService, exchanger, auditSink)
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}

	searchTool, err := mcpserver.NewWorkplaceSearchTool(searchService, cfg.SearchToolName, cfg.DefaultMaxResults)
	if err != nil {
		return fmt.Errorf("failed to create workplace search tool: %w", err)
	}
	if err := server.GetToolRegistry().RegisterTool(searchTool.GetToolDefinition(), auth.ScopeWorkplaceRead, searchTool.HandleToolCall); err != nil {
		return fmt.Errorf("failed to register workplace search tool: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Printf("Received shutdown signal, stopping server...")
		cancel()

		if err := server.Stop(); err != nil {
			logger.Printf("Error during server shutdown: %v", err)
		}
	}()

	logger.Printf("Starting gateway on %s:%d (tool: %s, sources: %v)",
		cfg.ServerHost, cfg.ServerPort, cfg.SearchToolName, registry.Sources())

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start gateway server: %w", err)
	}

	<-runCtx.Done()

	logger.Printf("Gateway stopped")
	return nil
}
