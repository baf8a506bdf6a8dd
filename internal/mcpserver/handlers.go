package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/metrics"
	"github.com/ca-srg/workgate/internal/types"
)

// handleHealth reports liveness. Unauthenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": types.ServerName,
		"version": types.ServerVersion,
	})
}

// handleServerInfo describes the gateway's capabilities. Unauthenticated.
func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ServerInfo{
		Name:        types.ServerName,
		Version:     types.ServerVersion,
		Description: "Authenticated gateway for workplace search across Google Drive and Notion",
		Capabilities: types.Capabilities{
			Tools: true,
		},
	})
}

// handleListTools lists the tools the verified caller may invoke
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeGatewayError(w, types.NewAuthError("missing caller identity", types.ErrInvalidToken))
		return
	}

	writeJSON(w, http.StatusOK, types.ToolListResult{
		Tools: s.toolRegistry.ListToolsFor(claims),
	})
}

// toolCallBody is the request body for tool invocation. The arguments object
// may arrive wrapped under "arguments" or as the bare top-level object.
type toolCallBody struct {
	Arguments map[string]interface{} `json:"arguments"`
}

// handleToolCall invokes a registered tool on behalf of the caller
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	toolName := r.PathValue("tool")

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		writeGatewayError(w, types.NewAuthError("missing caller identity", types.ErrInvalidToken))
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		writeGatewayError(w, types.NewValidationError("request body must be a JSON object"))
		return
	}

	params := raw
	if wrapped, ok := raw["arguments"].(map[string]interface{}); ok {
		params = wrapped
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	attrs := []attribute.KeyValue{
		attribute.String("gateway.endpoint", "tool_call"),
		attribute.String("gateway.tool", toolName),
	}

	s.auditSink.RecordRequest(claims.UserID, toolName, params)

	start := time.Now()
	result, err := s.toolRegistry.ExecuteTool(ctx, claims, toolName, params)
	elapsed := time.Since(start)

	if err != nil {
		s.auditSink.RecordResponse(claims.UserID, toolName, elapsed.Milliseconds(), false)
		recordGatewayMetrics(ctx, attrs, elapsed, string(types.KindOf(err)))
		writeGatewayError(w, err)
		return
	}

	s.auditSink.RecordResponse(claims.UserID, toolName, elapsed.Milliseconds(), true)
	recordGatewayMetrics(ctx, attrs, elapsed, "")
	metrics.RecordInvocation(metrics.ModeToolCall)

	writeJSON(w, http.StatusOK, result)
}

// searchRequestBody is the REST search request. Pointer fields distinguish
// absent parameters from zero values so defaults apply only when omitted.
type searchRequestBody struct {
	Query          string   `json:"query"`
	Sources        []string `json:"sources"`
	MaxResults     *int     `json:"max_results"`
	IncludeContent *bool    `json:"include_content"`
}

// handleWorkplaceSearch serves the REST search endpoint
func (s *Server) handleWorkplaceSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		writeGatewayError(w, types.NewAuthError("missing caller identity", types.ErrInvalidToken))
		return
	}
	if !auth.HasScope(claims, auth.ScopeWorkplaceRead) {
		writeGatewayError(w, types.NewPermissionError(fmt.Sprintf("scope '%s' is required for workplace search", auth.ScopeWorkplaceRead)))
		return
	}

	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGatewayError(w, types.NewValidationError("request body must be a JSON object"))
		return
	}

	request := &types.SearchRequest{
		Query:          body.Query,
		Sources:        body.Sources,
		MaxResults:     s.config.DefaultMaxResults,
		IncludeContent: true,
	}
	if len(request.Sources) == 0 {
		request.Sources = types.DefaultSources()
	}
	if body.MaxResults != nil {
		request.MaxResults = *body.MaxResults
	}
	if body.IncludeContent != nil {
		request.IncludeContent = *body.IncludeContent
	}

	attrs := []attribute.KeyValue{
		attribute.String("gateway.endpoint", "workplace_search"),
	}

	s.auditSink.RecordRequest(claims.UserID, "workplace_search", map[string]interface{}{
		"query":       request.Query,
		"sources":     request.Sources,
		"max_results": request.MaxResults,
	})

	start := time.Now()
	response, err := s.searchService.Search(ctx, request, claims)
	elapsed := time.Since(start)

	if err != nil {
		s.auditSink.RecordResponse(claims.UserID, "workplace_search", elapsed.Milliseconds(), false)
		recordGatewayMetrics(ctx, attrs, elapsed, string(types.KindOf(err)))
		writeGatewayError(w, err)
		return
	}

	s.auditSink.RecordResponse(claims.UserID, "workplace_search", elapsed.Milliseconds(), true)
	recordGatewayMetrics(ctx, attrs, elapsed, "")
	metrics.RecordInvocation(metrics.ModeSearch)

	writeJSON(w, http.StatusOK, response)
}

// tokenExchangeBody is the request body for token exchange
type tokenExchangeBody struct {
	Token string `json:"token"`
}

// handleTokenExchange swaps a verified provider token for a gateway token
func (s *Server) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.exchanger == nil {
		writeGatewayError(w, types.NewNotFoundError("token exchange is not configured"))
		return
	}

	var body tokenExchangeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGatewayError(w, types.NewValidationError("request body must be a JSON object"))
		return
	}
	if body.Token == "" {
		writeGatewayError(w, types.NewValidationError("token is required"))
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("gateway.endpoint", "token_exchange"),
	}

	start := time.Now()
	response, err := s.exchanger.Exchange(ctx, body.Token)
	elapsed := time.Since(start)

	if err != nil {
		recordGatewayMetrics(ctx, attrs, elapsed, string(types.KindOf(err)))
		writeGatewayError(w, err)
		return
	}

	recordGatewayMetrics(ctx, attrs, elapsed, "")
	metrics.RecordInvocation(metrics.ModeExchange)

	writeJSON(w, http.StatusOK, response)
}
