package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/store"
)

const shutdownTimeout = 30 * time.Second

// Start checks that the store answers before traffic is accepted.
func (a *Application) Start(ctx context.Context) error {
	if a.Store == nil || a.Store.Store == nil {
		return fmt.Errorf("store is not initialized")
	}
	if _, err := a.Store.Store.Load(ctx, store.DefaultTenant); err != nil {
		return fmt.Errorf("probe store: %w", err)
	}
	logger.Info("Store reachable", zap.String("backend", a.Store.Backend))
	return nil
}

// Shutdown gracefully shuts down all application components. The store is
// closed first so pending file backups finish on the still-running pool.
func (a *Application) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			logger.Error("failed to close store", zap.String("backend", a.Store.Backend), zap.Error(err))
		}
		logger.Info("Store closed")
	}
	if a.Pool != nil {
		m := a.Pool.Metrics()
		logger.Info("Stopping worker pool", zap.Int("running", m["running"]), zap.Int("cap", m["cap"]))
		a.Pool.Shutdown()
	}
}
