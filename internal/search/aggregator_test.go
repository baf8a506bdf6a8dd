package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/workgate/internal/credentials"
	"github.com/ca-srg/workgate/internal/types"
)

type stubAdapter struct {
	name    string
	results []types.SearchResult
	err     error
	delay   time.Duration
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Search(ctx context.Context, query, credential string, limit int) ([]types.SearchResult, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	results := a.results
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func result(title, source string, score float64) types.SearchResult {
	return types.SearchResult{
		Title:   title,
		Source:  source,
		URL:     "https://example.com/" + title,
		Snippet: title + " snippet",
		Score:   score,
		Content: title + " content",
	}
}

func readerClaims(sources ...string) *types.Claims {
	claims := &types.Claims{
		UserID:    "user-1",
		Email:     "user-1@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, source := range sources {
		claims.Scopes = append(claims.Scopes, "workplace:read:"+source)
	}
	return claims
}

func newTestService(t *testing.T, adapters ...SourceAdapter) *Service {
	t.Helper()
	registry := NewAdapterRegistry()
	for _, adapter := range adapters {
		registry.Register(adapter)
	}
	sources := registry.Sources()
	service, err := NewService(registry, credentials.NewStaticStoreWithDefaults(sources), 100*time.Millisecond)
	require.NoError(t, err)
	return service
}

func TestServiceSearchRanking(t *testing.T) {
	ctx := context.Background()

	t.Run("merges sources sorted by score descending", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", results: []types.SearchResult{
				result("drive-high", "google_drive", 0.95),
				result("drive-low", "google_drive", 0.40),
			}},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion-mid", "notion", 0.88),
			}},
		)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "quarterly report",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 10,
		}, readerClaims("google_drive", "notion"))
		require.NoError(t, err)
		require.Equal(t, 3, resp.TotalCount)
		require.Equal(t, "drive-high", resp.Results[0].Title)
		require.Equal(t, "notion-mid", resp.Results[1].Title)
		require.Equal(t, "drive-low", resp.Results[2].Title)
		require.Equal(t, "quarterly report", resp.Query)
		require.Equal(t, []string{"google_drive", "notion"}, resp.Sources)
	})

	t.Run("equal scores keep request source order", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", results: []types.SearchResult{
				result("drive-tied", "google_drive", 0.5),
			}, delay: 20 * time.Millisecond},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion-tied", "notion", 0.5),
			}},
		)

		// The drive adapter finishes last, but the ordering must follow the
		// requested source order, not completion order.
		for i := 0; i < 5; i++ {
			resp, err := service.Search(ctx, &types.SearchRequest{
				Query:      "tied",
				Sources:    []string{"google_drive", "notion"},
				MaxResults: 10,
			}, readerClaims("google_drive", "notion"))
			require.NoError(t, err)
			require.Equal(t, "drive-tied", resp.Results[0].Title)
			require.Equal(t, "notion-tied", resp.Results[1].Title)
		}
	})

	t.Run("truncates to max results after ranking", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", results: []types.SearchResult{
				result("drive", "google_drive", 0.95),
			}},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion", "notion", 0.88),
			}},
		)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "budget",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 1,
		}, readerClaims("google_drive", "notion"))
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalCount)
		require.Equal(t, "drive", resp.Results[0].Title)
		require.Equal(t, []string{"google_drive", "notion"}, resp.Sources)
	})
}

func TestServiceSearchIsolation(t *testing.T) {
	ctx := context.Background()

	t.Run("failing adapter contributes zero results", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", err: errors.New("backend down")},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion", "notion", 0.88),
			}},
		)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "roadmap",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 10,
		}, readerClaims("google_drive", "notion"))
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalCount)
		require.Equal(t, "notion", resp.Results[0].Source)
	})

	t.Run("slow adapter is cut off at the source timeout", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", delay: 5 * time.Second, results: []types.SearchResult{
				result("never", "google_drive", 0.99),
			}},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion", "notion", 0.88),
			}},
		)

		start := time.Now()
		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "roadmap",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 10,
		}, readerClaims("google_drive", "notion"))
		require.NoError(t, err)
		require.Less(t, time.Since(start), 2*time.Second)
		require.Equal(t, 1, resp.TotalCount)
		require.Equal(t, "notion", resp.Results[0].Source)
	})

	t.Run("missing credential disables only that source", func(t *testing.T) {
		registry := NewAdapterRegistry()
		registry.Register(&stubAdapter{name: "google_drive", results: []types.SearchResult{
			result("drive", "google_drive", 0.95),
		}})
		registry.Register(&stubAdapter{name: "notion", results: []types.SearchResult{
			result("notion", "notion", 0.88),
		}})

		store := credentials.NewStaticStore()
		store.Set("", "notion", "notion-token")
		service, err := NewService(registry, store, time.Second)
		require.NoError(t, err)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "okr",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 10,
		}, readerClaims("google_drive", "notion"))
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalCount)
		require.Equal(t, "notion", resp.Results[0].Source)
	})
}

func TestServiceSearchScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthorized source is skipped silently", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "google_drive", results: []types.SearchResult{
				result("drive", "google_drive", 0.95),
			}},
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion", "notion", 0.88),
			}},
		)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "handbook",
			Sources:    []string{"google_drive", "notion"},
			MaxResults: 10,
		}, readerClaims("notion"))
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalCount)
		require.Equal(t, "notion", resp.Results[0].Source)
	})

	t.Run("unrecognized source is skipped", func(t *testing.T) {
		service := newTestService(t,
			&stubAdapter{name: "notion", results: []types.SearchResult{
				result("notion", "notion", 0.88),
			}},
		)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "handbook",
			Sources:    []string{"sharepoint", "notion"},
			MaxResults: 10,
		}, readerClaims("sharepoint", "notion"))
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalCount)
	})

	t.Run("empty source list yields empty response", func(t *testing.T) {
		service := newTestService(t)

		resp, err := service.Search(ctx, &types.SearchRequest{
			Query:      "anything",
			Sources:    []string{},
			MaxResults: 10,
		}, readerClaims())
		require.NoError(t, err)
		require.Equal(t, 0, resp.TotalCount)
		require.Empty(t, resp.Results)
	})
}

func TestServiceSearchValidation(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := service.Search(ctx, &types.SearchRequest{
			Query:      "   ",
			Sources:    []string{"notion"},
			MaxResults: 10,
		}, readerClaims("notion"))
		require.Error(t, err)
		require.Equal(t, types.ErrorKindValidation, types.KindOf(err))
	})

	t.Run("out of range max results is rejected", func(t *testing.T) {
		_, err := service.Search(ctx, &types.SearchRequest{
			Query:      "anything",
			Sources:    []string{"notion"},
			MaxResults: 500,
		}, readerClaims("notion"))
		require.Error(t, err)
		require.Equal(t, types.ErrorKindValidation, types.KindOf(err))
	})

	t.Run("missing claims is an auth error", func(t *testing.T) {
		_, err := service.Search(ctx, &types.SearchRequest{
			Query:      "anything",
			Sources:    []string{"notion"},
			MaxResults: 10,
		}, nil)
		require.Error(t, err)
		require.Equal(t, types.ErrorKindAuth, types.KindOf(err))
	})
}

func TestServiceSearchContentStripping(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t,
		&stubAdapter{name: "notion", results: []types.SearchResult{
			result("notion", "notion", 0.88),
		}},
	)

	resp, err := service.Search(ctx, &types.SearchRequest{
		Query:          "wiki",
		Sources:        []string{"notion"},
		MaxResults:     10,
		IncludeContent: false,
	}, readerClaims("notion"))
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalCount)
	require.Empty(t, resp.Results[0].Content)
	require.NotEmpty(t, resp.Results[0].Snippet)
}

func TestMockAdapters(t *testing.T) {
	ctx := context.Background()

	t.Run("registry registers both built-in adapters", func(t *testing.T) {
		registry := NewDefaultAdapterRegistry()
		require.ElementsMatch(t, []string{"google_drive", "notion"}, registry.Sources())
	})

	t.Run("google drive returns scored mock data", func(t *testing.T) {
		adapter := NewGoogleDriveAdapter()
		results, err := adapter.Search(ctx, "okr", "token", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, 0.95, results[0].Score)
		require.Equal(t, "google_drive", results[0].Source)
		require.NotNil(t, results[0].LastModified)
	})

	t.Run("notion returns scored mock data", func(t *testing.T) {
		adapter := NewNotionAdapter()
		results, err := adapter.Search(ctx, "okr", "token", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, 0.88, results[0].Score)
	})

	t.Run("limit zero yields no results", func(t *testing.T) {
		adapter := NewNotionAdapter()
		results, err := adapter.Search(ctx, "okr", "token", 0)
		require.NoError(t, err)
		require.Empty(t, results)
	})

	t.Run("empty credential fails", func(t *testing.T) {
		adapter := NewGoogleDriveAdapter()
		_, err := adapter.Search(ctx, "okr", "", 10)
		require.Error(t, err)
	})
}
