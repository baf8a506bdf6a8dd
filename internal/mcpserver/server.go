package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ca-srg/workgate/internal/audit"
	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/search"
	"github.com/ca-srg/workgate/internal/types"
)

// Server is the HTTP surface of the gateway
type Server struct {
	server         *http.Server
	toolRegistry   *ToolRegistry
	authMiddleware *AuthMiddleware
	searchService  *search.Service
	exchanger      *auth.Exchanger
	auditSink      audit.Sink
	logger         *log.Logger
	shutdownChan   chan struct{}
	wg             sync.WaitGroup
	mutex          sync.RWMutex
	isRunning      bool
	config         *ServerConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
	EnableAccessLog bool

	// DefaultMaxResults applies when a search request omits max_results
	DefaultMaxResults int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1MB
		ShutdownTimeout: 30 * time.Second,
		EnableAccessLog: true,

		DefaultMaxResults: 10,
	}
}

// NewServer creates a gateway server wired to its collaborators. The audit
// sink may be nil; a no-op sink is substituted so handlers never check.
func NewServer(config *ServerConfig, verifier auth.ClaimsVerifier, searchService *search.Service, exchanger *auth.Exchanger, auditSink audit.Sink) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.DefaultMaxResults < 1 || config.DefaultMaxResults > types.MaxResultsLimit {
		config.DefaultMaxResults = 10
	}
	if verifier == nil {
		return nil, fmt.Errorf("claims verifier cannot be nil")
	}
	if searchService == nil {
		return nil, fmt.Errorf("search service cannot be nil")
	}
	if auditSink == nil {
		auditSink = audit.NopSink{}
	}

	authMiddleware, err := NewAuthMiddleware(verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	s := &Server{
		toolRegistry:   NewToolRegistry(),
		authMiddleware: authMiddleware,
		searchService:  searchService,
		exchanger:      exchanger,
		auditSink:      auditSink,
		logger:         log.New(os.Stdout, "[Server] ", log.LstdFlags),
		shutdownChan:   make(chan struct{}),
		config:         config,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /mcp/info", s.handleServerInfo)
	mux.HandleFunc("GET /mcp/tools", s.handleListTools)
	mux.HandleFunc("POST /mcp/tools/{tool}/call", s.handleToolCall)
	mux.HandleFunc("POST /api/v1/workplace/search", s.handleWorkplaceSearch)
	mux.HandleFunc("POST /auth/token/exchange", s.handleTokenExchange)

	var handler http.Handler = mux
	handler = s.authMiddleware.Middleware(handler)
	if config.EnableAccessLog {
		handler = s.accessLogMiddleware(handler)
	}

	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:        handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s, nil
}

// GetToolRegistry returns the tool registry
func (s *Server) GetToolRegistry() *ToolRegistry {
	return s.toolRegistry
}

// Start starts the gateway server
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("server is already running")
	}

	s.logger.Printf("Starting gateway server on %s", s.server.Addr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	s.isRunning = true
	s.logger.Printf("Gateway server started successfully")
	return nil
}

// Stop gracefully stops the gateway server
func (s *Server) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return fmt.Errorf("server is not running")
	}

	s.logger.Printf("Stopping gateway server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Printf("Graceful shutdown failed: %v", err)
		if closeErr := s.server.Close(); closeErr != nil {
			return closeErr
		}
	}

	close(s.shutdownChan)
	s.wg.Wait()
	s.isRunning = false
	s.logger.Printf("Gateway server stopped successfully")
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

// WaitForShutdown blocks until the server is shut down
func (s *Server) WaitForShutdown() {
	<-s.shutdownChan
}

// Handler exposes the full middleware chain for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Printf("%s %s -> %d (%v) from %s", r.Method, r.URL.Path, recorder.status, time.Since(start), r.RemoteAddr)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// statusForKind maps an error kind to its HTTP status code
func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrorKindAuth:
		return http.StatusUnauthorized
	case types.ErrorKindPermission:
		return http.StatusForbidden
	case types.ErrorKindValidation:
		return http.StatusBadRequest
	case types.ErrorKindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeGatewayError writes the JSON error envelope for a failure. Internal
// causes are never leaked to the caller.
func writeGatewayError(w http.ResponseWriter, err error) {
	kind := types.KindOf(err)

	message := "internal server error"
	var ge *types.GatewayError
	if errors.As(err, &ge) && ge.Kind != types.ErrorKindInternal {
		message = ge.Message
	}

	writeJSON(w, statusForKind(kind), types.ErrorResponse{
		Error: types.ErrorBody{Kind: kind, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
