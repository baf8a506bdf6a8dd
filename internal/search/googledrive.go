package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ca-srg/workgate/internal/types"
)

// GoogleDriveAdapter is a mock Google Drive source adapter. A production
// deployment would call the Drive API with the user's OAuth credential; this
// adapter returns representative static data shaped like the real backend.
type GoogleDriveAdapter struct{}

// NewGoogleDriveAdapter creates the Google Drive adapter
func NewGoogleDriveAdapter() *GoogleDriveAdapter {
	return &GoogleDriveAdapter{}
}

// Name returns the source identifier
func (a *GoogleDriveAdapter) Name() string {
	return types.SourceGoogleDrive
}

// Search returns mock Drive results for the query, capped at limit
func (a *GoogleDriveAdapter) Search(ctx context.Context, query, credential string, limit int) ([]types.SearchResult, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing Google Drive credential")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modified := time.Now().UTC().Add(-24 * time.Hour)
	results := []types.SearchResult{
		{
			Title:        fmt.Sprintf("Document about %s", query),
			Source:       types.SourceGoogleDrive,
			URL:          "https://drive.google.com/doc/mock",
			Snippet:      fmt.Sprintf("This document contains information about %s...", query),
			Score:        0.95,
			LastModified: &modified,
			Content:      fmt.Sprintf("Full content about %s would be here...", query),
		},
	}

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
