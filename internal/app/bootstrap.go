// Package app is the composition root: it wires configuration, the store
// backend, the worker pool, the service and the HTTP router.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/api/handlers"
	"archgraph.io/archgraph/internal/api/middleware"
	"archgraph.io/archgraph/internal/config"
	"archgraph.io/archgraph/internal/infrastructure"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/pkg/worker"
	"archgraph.io/archgraph/internal/service"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Store   *infrastructure.StoreHandle
	Pool    *worker.Pool
	Service *service.Service
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	pool, err := worker.New(ctx, "archgraph", cfg.Worker.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	st, err := infrastructure.NewStore(ctx, cfg.Store, pool)
	if err != nil {
		pool.Shutdown()
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info("Store initialized", zap.String("backend", st.Backend))

	svc := service.New(st.Store)
	server := handlers.NewServer(handlers.ServerDeps{
		Service: svc,
		Store:   st.Store,
	})
	jwtCfg := JWTConfig(cfg.Auth)

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, jwtCfg),
		Store:   st,
		Pool:    pool,
		Service: svc,
	}, nil
}

// JWTConfig derives the token settings shared by the router and the token
// command.
func JWTConfig(auth config.AuthConfig) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(auth.SigningKey),
		Issuer:     auth.Issuer,
		ExpiresIn:  auth.TokenTTL,
	}
}
