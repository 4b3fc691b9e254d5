// Package store defines the persistence contract for tenant aggregates.
//
// Adapters live in sub-packages (memory, filestore, mongostore, pgstore,
// redisstore, badgerstore). Every adapter persists exactly the sanitized
// aggregate and sanitizes again on the way back in, so a damaged record can
// always be read.
//
// Import Path: archgraph.io/archgraph/internal/store
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/validation"
)

// DefaultTenant is the key used by single-tenant deployments.
const DefaultTenant = "default"

// Store loads and saves one aggregate per tenant.
type Store interface {
	// Load returns the tenant's aggregate, or an empty aggregate when none
	// has been stored yet.
	Load(ctx context.Context, userID string) (domain.Aggregate, error)

	// Save replaces the tenant's aggregate.
	Save(ctx context.Context, userID string, agg domain.Aggregate) error
}

// TenantKey maps a user id to its storage key. A blank id is the default tenant.
func TenantKey(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DefaultTenant
	}
	return userID
}

// Encode sanitizes agg and renders it as indented JSON.
func Encode(agg domain.Aggregate) ([]byte, error) {
	clean, err := validation.Revalidate(agg)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode aggregate: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode; missing data decodes to an empty aggregate.
func Decode(data []byte) (domain.Aggregate, error) {
	return validation.Decode(data)
}
