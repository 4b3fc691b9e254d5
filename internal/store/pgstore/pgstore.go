// Package pgstore persists aggregates in a PostgreSQL JSONB column.
//
// Import Path: archgraph.io/archgraph/internal/store/pgstore
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/store"
)

const backend = "postgres"

// DefaultTable is used when no table name is configured.
const DefaultTable = "archgraph_aggregates"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

var _ store.Store = (*Store)(nil)

// New wraps a pool. The table name must be a plain lower-case identifier.
func New(pool *pgxpool.Pool, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("pgstore: invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	user_id    TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.load(ctx, userID)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

func (s *Store) load(ctx context.Context, userID string) (domain.Aggregate, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE user_id = $1`, s.table),
		store.TenantKey(userID),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Aggregate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select aggregate: %w", err)
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
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (user_id, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`, s.table),
		store.TenantKey(userID), string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}
