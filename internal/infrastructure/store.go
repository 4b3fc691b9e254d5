package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/config"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/pkg/worker"
	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/store/badgerstore"
	"archgraph.io/archgraph/internal/store/filestore"
	"archgraph.io/archgraph/internal/store/memory"
	"archgraph.io/archgraph/internal/store/mongostore"
	"archgraph.io/archgraph/internal/store/pgstore"
	"archgraph.io/archgraph/internal/store/redisstore"
)

// StoreHandle owns a configured store and the connections behind it.
type StoreHandle struct {
	Store   store.Store
	Backend string

	closers []func(context.Context) error
}

// Close releases backend resources in reverse order of acquisition.
func (h *StoreHandle) Close(ctx context.Context) error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// NewStore opens the backend selected by cfg.Backend. The worker pool is
// optional and only used by the file backend.
func NewStore(ctx context.Context, cfg config.StoreConfig, workers *worker.Pool) (*StoreHandle, error) {
	h := &StoreHandle{Backend: cfg.Backend}

	switch cfg.Backend {
	case config.BackendMemory:
		h.Store = memory.New()

	case config.BackendFile:
		fs, err := filestore.New(filestore.Options{
			Path:       cfg.File.Path,
			Tenancy:    filestore.Tenancy(cfg.Tenancy),
			BackupDir:  cfg.File.BackupDir,
			MaxBackups: cfg.File.MaxBackups,
			Pool:       workers,
		})
		if err != nil {
			return nil, err
		}
		h.Store = fs
		h.closers = append(h.closers, func(context.Context) error {
			fs.Wait()
			return nil
		})

	case config.BackendMongo:
		ms, err := mongostore.Connect(ctx, mongostore.Options{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, err
		}
		h.Store = ms
		h.closers = append(h.closers, ms.Close)

	case config.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		ps, err := pgstore.New(pool, cfg.Postgres.Table)
		if err != nil {
			_ = h.Close(ctx)
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := ps.EnsureSchema(ctx); err != nil {
				_ = h.Close(ctx)
				return nil, err
			}
		}
		h.Store = ps

	case config.BackendRedis:
		rs, err := redisstore.Connect(ctx, redisstore.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		h.Store = rs
		h.closers = append(h.closers, func(context.Context) error { return rs.Close() })

	case config.BackendBadger:
		bs, err := badgerstore.Open(badgerstore.Options{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, err
		}
		h.Store = bs
		h.closers = append(h.closers, func(context.Context) error { return bs.Close() })

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}

	logger.Info("Store opened", zap.String("backend", cfg.Backend), zap.String("tenancy", cfg.Tenancy))
	return h, nil
}
