package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ca-srg/workgate/internal/types"
)

// NotionAdapter is a mock Notion source adapter returning representative
// static data shaped like the real backend.
type NotionAdapter struct{}

// NewNotionAdapter creates the Notion adapter
func NewNotionAdapter() *NotionAdapter {
	return &NotionAdapter{}
}

// Name returns the source identifier
func (a *NotionAdapter) Name() string {
	return types.SourceNotion
}

// Search returns mock Notion results for the query, capped at limit
func (a *NotionAdapter) Search(ctx context.Context, query, credential string, limit int) ([]types.SearchResult, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing Notion credential")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modified := time.Now().UTC().Add(-48 * time.Hour)
	results := []types.SearchResult{
		{
			Title:        fmt.Sprintf("Notion page: %s", query),
			Source:       types.SourceNotion,
			URL:          "https://notion.so/mock-page",
			Snippet:      fmt.Sprintf("Notion content about %s...", query),
			Score:        0.88,
			LastModified: &modified,
			Content:      fmt.Sprintf("Full Notion content about %s...", query),
		},
	}

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
