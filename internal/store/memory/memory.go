// Package memory provides an in-process Store.
//
// Aggregates are kept in their encoded form, so callers never share memory
// with what is stored.
//
// Import Path: archgraph.io/archgraph/internal/store/memory
package memory

import (
	"context"
	"sync"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/store"
)

const backend = "memory"

// Store is an in-memory store.Store.
type Store struct {
	mu      sync.RWMutex
	tenants map[string][]byte
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{tenants: make(map[string][]byte)}
}

// Load implements store.Store.
func (s *Store) Load(_ context.Context, userID string) (domain.Aggregate, error) {
	s.mu.RLock()
	data := s.tenants[store.TenantKey(userID)]
	s.mu.RUnlock()

	agg, err := store.Decode(data)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, userID string, agg domain.Aggregate) error {
	data, err := store.Encode(agg)
	if err == nil {
		s.mu.Lock()
		s.tenants[store.TenantKey(userID)] = data
		s.mu.Unlock()
	}
	metrics.ObserveStore(backend, "save", err)
	return err
}

// Tenants lists the tenant keys that have been saved.
func (s *Store) Tenants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tenants))
	for k := range s.tenants {
		out = append(out, k)
	}
	return out
}
