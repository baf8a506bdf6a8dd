package types

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCP SDK type aliases used across the gateway surface

// ToolDefinition is the SDK Tool type
type ToolDefinition = mcp.Tool

// ToolCallResult is the SDK tool call result carrying typed content blocks
type ToolCallResult = mcp.CallToolResult

// ToolCall is an inbound tool call request body
type ToolCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ToolListResult contains the tools available to the caller
type ToolListResult struct {
	Tools []*ToolDefinition `json:"tools"`
}

// ServerInfo describes the gateway's capabilities to unauthenticated clients
type ServerInfo struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities flags the MCP feature surface this gateway exposes
type Capabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
}

// TokenExchangeResponse is returned by the token exchange endpoint
type TokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorResponse is the JSON error envelope written at the HTTP boundary
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error kind and a caller-safe message
type ErrorBody struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}
