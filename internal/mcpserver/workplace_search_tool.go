package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ca-srg/workgate/internal/search"
	"github.com/ca-srg/workgate/internal/types"
)

// WorkplaceSearchTool adapts the search aggregation service to the MCP tool
// interface. One instance serves all callers; per-caller state travels in the
// claims argument.
type WorkplaceSearchTool struct {
	service           *search.Service
	toolName          string
	defaultMaxResults int
	logger            *log.Logger
}

// NewWorkplaceSearchTool creates the workplace search tool adapter
func NewWorkplaceSearchTool(service *search.Service, toolName string, defaultMaxResults int) (*WorkplaceSearchTool, error) {
	if service == nil {
		return nil, fmt.Errorf("search service cannot be nil")
	}
	if toolName == "" {
		toolName = "workplace_search"
	}
	if defaultMaxResults < 1 || defaultMaxResults > types.MaxResultsLimit {
		defaultMaxResults = 10
	}

	return &WorkplaceSearchTool{
		service:           service,
		toolName:          toolName,
		defaultMaxResults: defaultMaxResults,
		logger:            log.New(log.Writer(), "[WorkplaceSearchTool] ", log.LstdFlags),
	}, nil
}

// GetToolDefinition returns the MCP tool definition for workplace search
func (t *WorkplaceSearchTool) GetToolDefinition() *types.ToolDefinition {
	schemaMap := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query text",
			},
			"sources": map[string]interface{}{
				"type":        "array",
				"description": "Sources to search; defaults to all available sources",
				"items": map[string]interface{}{
					"type": "string",
					"enum": []string{types.SourceGoogleDrive, types.SourceNotion},
				},
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum total results to return (1-%d)", types.MaxResultsLimit),
				"minimum":     1,
				"maximum":     types.MaxResultsLimit,
				"default":     t.defaultMaxResults,
			},
			"include_content": map[string]interface{}{
				"type":        "boolean",
				"description": "Include full document content in results",
				"default":     true,
			},
		},
		"required": []string{"query"},
	}

	var inputSchema *jsonschema.Schema
	schemaBytes, err := json.Marshal(schemaMap)
	if err == nil {
		inputSchema = &jsonschema.Schema{}
		_ = json.Unmarshal(schemaBytes, inputSchema)
	}

	return &types.ToolDefinition{
		Name:        t.toolName,
		Description: "Search across workplace data sources (Google Drive, Notion) and return ranked results",
		InputSchema: inputSchema,
	}
}

// HandleToolCall executes the workplace search tool
func (t *WorkplaceSearchTool) HandleToolCall(ctx context.Context, claims *types.Claims, params map[string]interface{}) (*types.ToolCallResult, error) {
	request, err := t.parseParams(params)
	if err != nil {
		return CreateToolCallErrorResult(fmt.Sprintf("Invalid parameters: %v", err)), err
	}

	response, err := t.service.Search(ctx, request, claims)
	if err != nil {
		t.logger.Printf("Search failed: %v", err)
		return CreateToolCallErrorResult(fmt.Sprintf("Search failed: %v", err)), err
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		wrapped := types.NewInternalError(fmt.Errorf("failed to serialize search response: %w", err))
		return CreateToolCallErrorResult(wrapped.Message), wrapped
	}

	t.logger.Printf("Search completed: %d results for user %s in %dms",
		response.TotalCount, claims.UserID, response.ExecutionTimeMs)

	return &types.ToolCallResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d results for '%s'", response.TotalCount, response.Query),
			},
			&mcp.EmbeddedResource{
				Resource: &mcp.ResourceContents{
					URI:      fmt.Sprintf("workplace://search/%s", response.Query),
					MIMEType: "application/json",
					Text:     string(responseJSON),
				},
			},
		},
	}, nil
}

// parseParams extracts and validates tool call arguments
func (t *WorkplaceSearchTool) parseParams(params map[string]interface{}) (*types.SearchRequest, error) {
	request := &types.SearchRequest{
		Sources:        types.DefaultSources(),
		MaxResults:     t.defaultMaxResults,
		IncludeContent: true,
	}

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return nil, types.NewValidationError("query parameter is required and must be a string")
	}
	request.Query = query

	if raw, exists := params["sources"]; exists {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, types.NewValidationError("sources must be an array of strings")
		}
		sources := make([]string, 0, len(list))
		for _, item := range list {
			source, ok := item.(string)
			if !ok {
				return nil, types.NewValidationError("sources must be an array of strings")
			}
			sources = append(sources, source)
		}
		request.Sources = sources
	}

	if raw, exists := params["max_results"]; exists {
		switch v := raw.(type) {
		case float64:
			request.MaxResults = int(v)
		case int:
			request.MaxResults = v
		default:
			return nil, types.NewValidationError("max_results must be an integer")
		}
	}

	if raw, exists := params["include_content"]; exists {
		include, ok := raw.(bool)
		if !ok {
			return nil, types.NewValidationError("include_content must be a boolean")
		}
		request.IncludeContent = include
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}
	return request, nil
}
