// Package main is the entry point for the archgraph HTTP server.
//
// Without a subcommand it serves the API. "server token" mints a bearer token
// for a user id with the configured signing key, for local use when
// auth.enabled is on.
//
// Import Path: archgraph.io/archgraph/cmd/server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/api/middleware"
	"archgraph.io/archgraph/internal/app"
	"archgraph.io/archgraph/internal/config"
	"archgraph.io/archgraph/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the architecture graph API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID   string
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token selecting a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled {
				return errors.New("auth.enabled is false; the server ignores tokens")
			}
			jwtCfg := app.JWTConfig(cfg.Auth)
			if cmd.Flags().Changed("ttl") {
				jwtCfg.ExpiresIn = ttl
			}
			if username == "" {
				username = userID
			}
			token, expiresAt, err := middleware.GenerateToken(jwtCfg, userID, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			logger.Info("Token issued", logger.Tenant(userID), zap.Time("expires_at", expiresAt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id; it selects the tenant aggregate")
	cmd.Flags().StringVar(&username, "name", "", "display name (defaults to the user id)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (overrides auth.token_ttl)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

// serve runs until ctx is cancelled (SIGINT/SIGTERM) or the listener fails.
func serve(ctx context.Context, cfg *config.Config) error {
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting archgraph",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("store_tenancy", cfg.Store.Tenancy),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
	)

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	srv := newHTTPServer(cfg.Server, application.Router)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info("Server started", zap.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
