package search

import (
	"context"
	"sync"

	"github.com/ca-srg/workgate/internal/types"
)

// SourceAdapter translates a normalized search call into a specific
// backend's query. Adapters are independent and pluggable; the aggregator
// treats all adapters uniformly through this contract, so new backends are
// added by registration without touching aggregation logic.
type SourceAdapter interface {
	// Name returns the source identifier this adapter serves
	Name() string

	// Search runs the backend query. limit bounds the returned slice
	// exactly; an adapter never returns more than limit results.
	Search(ctx context.Context, query, credential string, limit int) ([]types.SearchResult, error)
}

// AdapterRegistry maps source identifiers to adapters
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]SourceAdapter
}

// NewAdapterRegistry creates an empty adapter registry
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[string]SourceAdapter)}
}

// NewDefaultAdapterRegistry creates a registry with the built-in adapters
func NewDefaultAdapterRegistry() *AdapterRegistry {
	registry := NewAdapterRegistry()
	registry.Register(NewGoogleDriveAdapter())
	registry.Register(NewNotionAdapter())
	return registry
}

// Register adds an adapter, replacing any existing one for the same source
func (r *AdapterRegistry) Register(adapter SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Name()] = adapter
}

// Lookup returns the adapter for a source identifier
func (r *AdapterRegistry) Lookup(source string) (SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[source]
	return adapter, ok
}

// Sources returns the registered source identifiers
func (r *AdapterRegistry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		sources = append(sources, name)
	}
	return sources
}
