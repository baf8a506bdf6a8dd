package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/types"
)

// ToolHandler executes a tool call on behalf of the verified caller
type ToolHandler func(ctx context.Context, claims *types.Claims, params map[string]interface{}) (*types.ToolCallResult, error)

// ToolInfo contains a registered tool and the capability required to use it
type ToolInfo struct {
	Definition    *types.ToolDefinition
	RequiredScope string
	Handler       ToolHandler
}

// ToolRegistry manages the gateway's tools. Listing and execution are both
// gated on the caller's scopes: a caller never sees, let alone invokes, a
// tool it lacks the required scope for.
type ToolRegistry struct {
	tools  map[string]*ToolInfo
	mutex  sync.RWMutex
	logger *log.Logger
}

// NewToolRegistry creates an empty tool registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:  make(map[string]*ToolInfo),
		logger: log.New(os.Stdout, "[ToolRegistry] ", log.LstdFlags),
	}
}

// RegisterTool registers a tool under its definition name
func (tr *ToolRegistry) RegisterTool(definition *types.ToolDefinition, requiredScope string, handler ToolHandler) error {
	if definition == nil || definition.Name == "" {
		return fmt.Errorf("tool definition must carry a name")
	}
	if handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	if _, exists := tr.tools[definition.Name]; exists {
		return fmt.Errorf("tool '%s' already registered", definition.Name)
	}

	tr.tools[definition.Name] = &ToolInfo{
		Definition:    definition,
		RequiredScope: requiredScope,
		Handler:       handler,
	}

	tr.logger.Printf("Registered tool: %s (required scope: %s)", definition.Name, requiredScope)
	return nil
}

// ListToolsFor returns the definitions of the tools the caller may invoke
func (tr *ToolRegistry) ListToolsFor(claims *types.Claims) []*types.ToolDefinition {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	tools := make([]*types.ToolDefinition, 0, len(tr.tools))
	for _, info := range tr.tools {
		if info.RequiredScope != "" && !auth.HasScope(claims, info.RequiredScope) {
			continue
		}
		tools = append(tools, info.Definition)
	}
	return tools
}

// ExecuteTool runs a tool after checking the caller holds its required scope
func (tr *ToolRegistry) ExecuteTool(ctx context.Context, claims *types.Claims, toolName string, params map[string]interface{}) (*types.ToolCallResult, error) {
	tr.mutex.RLock()
	info, exists := tr.tools[toolName]
	tr.mutex.RUnlock()

	if !exists {
		return nil, types.NewNotFoundError(fmt.Sprintf("tool '%s' not found", toolName))
	}
	if info.RequiredScope != "" && !auth.HasScope(claims, info.RequiredScope) {
		return nil, types.NewPermissionError(fmt.Sprintf("scope '%s' is required to call tool '%s'", info.RequiredScope, toolName))
	}

	tr.logger.Printf("Executing tool: %s for user %s", toolName, claims.UserID)

	type execResult struct {
		result *types.ToolCallResult
		err    error
	}
	resultCh := make(chan execResult, 1)

	go func() {
		res, err := info.Handler(ctx, claims, params)
		resultCh <- execResult{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()
		tr.logger.Printf("Tool execution cancelled for %s: %v", toolName, err)
		return CreateToolCallErrorResult(fmt.Sprintf("Tool execution cancelled: %v", err)), err
	case res := <-resultCh:
		return res.result, res.err
	}
}

// CreateToolCallResult creates a successful tool call result with text content
func CreateToolCallResult(content string) *types.ToolCallResult {
	return &types.ToolCallResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: content},
		},
	}
}

// CreateToolCallErrorResult creates a failed tool call result
func CreateToolCallErrorResult(message string) *types.ToolCallResult {
	return &types.ToolCallResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}
