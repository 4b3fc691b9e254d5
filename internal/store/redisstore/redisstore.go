// Package redisstore persists aggregates as JSON strings in Redis.
//
// Import Path: archgraph.io/archgraph/internal/store/redisstore
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/store"
)

const backend = "redis"

// DefaultKeyPrefix is used when Options.KeyPrefix is empty.
const DefaultKeyPrefix = "archgraph:aggregate:"

// Options configures Connect.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis-backed store.Store.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// Connect creates a client and verifies the connection.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redisstore: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return New(client, opts.KeyPrefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: keyPrefix}
}

// Key is the Redis key holding a tenant's aggregate.
func (s *Store) Key(userID string) string {
	return s.prefix + store.TenantKey(userID)
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.load(ctx, userID)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

func (s *Store) load(ctx context.Context, userID string) (domain.Aggregate, error) {
	data, err := s.client.Get(ctx, s.Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Aggregate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return store.Decode(data)
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, userID string, agg domain.Aggregate) error {
	err := s.save(ctx, userID, agg)
	metrics.ObserveStore(backend, "save", err)
	return err
}

func (s *Store) save(ctx context.Context, userID string, agg domain.Aggregate) error {
	data, err := store.Encode(agg)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
