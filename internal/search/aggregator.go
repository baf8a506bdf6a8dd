package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/workgate/internal/auth"
	"github.com/ca-srg/workgate/internal/credentials"
	"github.com/ca-srg/workgate/internal/types"
)

var aggregatorTracer = otel.Tracer("workgate/search")

// Service fans a workplace search out to the source adapters the caller is
// authorized for, merges their results, ranks them, and truncates to the
// requested limit. Requests share no mutable state, so the service is safe
// for concurrent use.
type Service struct {
	registry      *AdapterRegistry
	credentials   credentials.Store
	sourceTimeout time.Duration
	logger        *log.Logger
}

// NewService creates an aggregation service
func NewService(registry *AdapterRegistry, credStore credentials.Store, sourceTimeout time.Duration) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("adapter registry cannot be nil")
	}
	if credStore == nil {
		return nil, fmt.Errorf("credential store cannot be nil")
	}
	if sourceTimeout <= 0 {
		sourceTimeout = 10 * time.Second
	}

	return &Service{
		registry:      registry,
		credentials:   credStore,
		sourceTimeout: sourceTimeout,
		logger:        log.Default(),
	}, nil
}

// Search dispatches the query concurrently to every authorized source and
// returns the ranked, truncated aggregate. Single-source failures are
// absorbed: a failed adapter contributes zero results and never aborts the
// call. An empty source list yields an empty response, not an error.
func (s *Service) Search(ctx context.Context, request *types.SearchRequest, claims *types.Claims) (*types.SearchResponse, error) {
	ctx, span := aggregatorTracer.Start(ctx, "search.aggregate")
	defer span.End()

	if request == nil {
		err := types.NewValidationError("search request cannot be nil")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_request")
		return nil, err
	}
	if err := request.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_request")
		return nil, err
	}
	if claims == nil {
		err := types.NewAuthError("missing claims", types.ErrInvalidToken)
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing_claims")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("search.query", truncateQueryAttribute(request.Query)),
		attribute.StringSlice("search.sources", request.Sources),
		attribute.Int("search.max_results", request.MaxResults),
	)

	start := time.Now()

	// Results land in per-source slots indexed by request order so that
	// arrival order stays deterministic regardless of goroutine scheduling.
	slots := make([][]types.SearchResult, len(request.Sources))

	group, groupCtx := errgroup.WithContext(ctx)

	for i, source := range request.Sources {
		if !auth.HasScope(claims, auth.SourceScope(source)) {
			s.logger.Printf("skipping source %s: scope %s not granted to user %s", source, auth.SourceScope(source), claims.UserID)
			continue
		}

		adapter, ok := s.registry.Lookup(source)
		if !ok {
			// Unrecognized sources contribute nothing rather than failing
			// the whole call.
			s.logger.Printf("skipping unrecognized source %s", source)
			continue
		}

		slot := i
		group.Go(func() error {
			srcCtx, cancel := context.WithTimeout(groupCtx, s.sourceTimeout)
			defer cancel()

			results, err := s.searchSource(srcCtx, adapter, request, claims)
			if err != nil {
				// Adapter errors are absorbed here and never escape to the
				// caller.
				absorbed := types.NewAdapterError(adapter.Name(), err)
				s.logger.Printf("source search failed, continuing without it: %v", absorbed)
				span.RecordError(absorbed)
				return nil
			}

			slots[slot] = results
			return nil
		})
	}

	// Worker funcs always return nil; Wait only joins the fan-out.
	_ = group.Wait()

	combined := make([]types.SearchResult, 0, request.MaxResults)
	for _, results := range slots {
		combined = append(combined, results...)
	}

	// Stable sort keeps arrival order for equal scores so tied results are
	// reproducible.
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})

	if len(combined) > request.MaxResults {
		combined = combined[:request.MaxResults]
	}

	if !request.IncludeContent {
		for i := range combined {
			combined[i].Content = ""
		}
	}

	response := &types.SearchResponse{
		Results:         combined,
		TotalCount:      len(combined),
		Query:           request.Query,
		Sources:         request.Sources,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}

	span.SetAttributes(
		attribute.Int("search.results.total", response.TotalCount),
		attribute.Float64("search.execution_ms", float64(response.ExecutionTimeMs)),
	)
	span.SetStatus(codes.Ok, "search_completed")

	return response, nil
}

// searchSource resolves the caller's credential and runs one adapter
func (s *Service) searchSource(ctx context.Context, adapter SourceAdapter, request *types.SearchRequest, claims *types.Claims) ([]types.SearchResult, error) {
	credential, err := s.credentials.Resolve(ctx, claims.UserID, adapter.Name())
	if err != nil {
		return nil, fmt.Errorf("credential resolution failed: %w", err)
	}

	results, err := adapter.Search(ctx, request.Query, credential, request.MaxResults)
	if err != nil {
		return nil, err
	}

	// Defend the per-source cap even against a misbehaving adapter.
	if len(results) > request.MaxResults {
		results = results[:request.MaxResults]
	}

	return results, nil
}

// SetLogger sets a custom logger for the service
func (s *Service) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func truncateQueryAttribute(query string) string {
	const maxAttributeLength = 120
	runes := []rune(query)
	if len(runes) <= maxAttributeLength {
		return query
	}
	return string(runes[:maxAttributeLength]) + "…"
}
