// Package badgerstore persists aggregates in an embedded BadgerDB.
//
// Import Path: archgraph.io/archgraph/internal/store/badgerstore
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/store"
)

const (
	backend   = "badger"
	keyPrefix = "aggregate/"
)

// Options configures Open.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Store is a BadgerDB-backed store.Store.
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// zapLogger adapts the global zap logger to badger.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("badgerstore: path is required for persistent database")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithSyncWrites(true).
		WithLogger(zapLogger{s: logger.Named("badger").Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Key is the badger key holding a tenant's aggregate.
func Key(userID string) []byte {
	return []byte(keyPrefix + store.TenantKey(userID))
}

// Load implements store.Store.
func (s *Store) Load(_ context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.load(userID)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

func (s *Store) load(userID string) (domain.Aggregate, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(userID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Aggregate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return store.Decode(data)
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, userID string, agg domain.Aggregate) error {
	err := s.save(userID, agg)
	metrics.ObserveStore(backend, "save", err)
	return err
}

func (s *Store) save(userID string, agg domain.Aggregate) error {
	data, err := store.Encode(agg)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(userID), data)
	}); err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
