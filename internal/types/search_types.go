package types

import (
	"fmt"
	"strings"
	"time"
)

// Known source identifiers
const (
	SourceGoogleDrive = "google_drive"
	SourceNotion      = "notion"
)

// DefaultSources lists the sources searched when a request names none
func DefaultSources() []string {
	return []string{SourceGoogleDrive, SourceNotion}
}

// MaxResultsLimit bounds max_results in search requests
const MaxResultsLimit = 50

// Claims is the verified identity and permission data extracted from a
// caller's token. Immutable once produced.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SearchRequest contains workplace search parameters
type SearchRequest struct {
	Query          string   `json:"query"`
	Sources        []string `json:"sources"`
	MaxResults     int      `json:"max_results"`
	IncludeContent bool     `json:"include_content"`
}

// Validate enforces construction invariants. Out-of-range values are a
// validation error, never silently clamped.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return NewValidationError("query is required")
	}
	if r.MaxResults < 1 || r.MaxResults > MaxResultsLimit {
		return NewValidationError(fmt.Sprintf("max_results must be between 1 and %d", MaxResultsLimit))
	}
	return nil
}

// SearchResult is a single normalized result produced by exactly one source
// adapter. Ownership passes to the aggregator for merge and sort.
type SearchResult struct {
	Title        string     `json:"title"`
	Source       string     `json:"source"`
	URL          string     `json:"url"`
	Snippet      string     `json:"snippet"`
	Score        float64    `json:"score"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Content      string     `json:"content,omitempty"`
}

// SearchResponse is the ranked aggregation result. Derived, not persisted.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	TotalCount      int            `json:"total_count"`
	Query           string         `json:"query"`
	Sources         []string       `json:"sources"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
}

// AuditEvent is a write-once, best-effort record of a request or response
// sent to the external observability collector.
type AuditEvent struct {
	ID              string                 `json:"id"`
	Timestamp       time.Time              `json:"timestamp"`
	UserID          string                 `json:"user_id"`
	ToolName        string                 `json:"tool_name"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms,omitempty"`
	Success         bool                   `json:"success"`
	ServerName      string                 `json:"server_name"`
	ServerVersion   string                 `json:"server_version"`
}
