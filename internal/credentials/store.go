package credentials

import (
	"context"
	"fmt"
	"sync"
)

// Store resolves per-user backend credentials. Implementations are keyed by
// user id and source id so credential resolution is an explicit per-request
// capability rather than a process-wide table.
type Store interface {
	Resolve(ctx context.Context, userID, source string) (string, error)
}

// ErrNotFound reports a missing credential for a (user, source) pair
type NotFoundError struct {
	UserID string
	Source string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no credential for user %s source %s", e.UserID, e.Source)
}

// StaticStore is an in-memory Store for development and tests
type StaticStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

// NewStaticStore creates an empty in-memory credential store
func NewStaticStore() *StaticStore {
	return &StaticStore{creds: make(map[string]string)}
}

// NewStaticStoreWithDefaults creates a store pre-seeded with demo
// credentials for every known source, shared by all users.
func NewStaticStoreWithDefaults(sources []string) *StaticStore {
	s := NewStaticStore()
	for _, source := range sources {
		s.creds["*/"+source] = "demo-" + source + "-token"
	}
	return s
}

// Set stores a credential for a (user, source) pair. An empty userID sets a
// wildcard credential shared by all users of the source.
func (s *StaticStore) Set(userID, source, credential string) {
	key := userID + "/" + source
	if userID == "" {
		key = "*/" + source
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[key] = credential
}

// Resolve returns the credential for the pair, falling back to the source's
// wildcard entry.
func (s *StaticStore) Resolve(ctx context.Context, userID, source string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cred, ok := s.creds[userID+"/"+source]; ok {
		return cred, nil
	}
	if cred, ok := s.creds["*/"+source]; ok {
		return cred, nil
	}

	return "", &NotFoundError{UserID: userID, Source: source}
}
