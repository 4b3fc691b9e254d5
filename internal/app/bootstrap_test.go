package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph.io/archgraph/internal/config"
	"archgraph.io/archgraph/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Store: config.StoreConfig{
			Backend: config.BackendMemory,
			Tenancy: config.TenancyMulti,
		},
		CORS:   config.CORSConfig{AllowCredentials: true},
		Worker: config.WorkerConfig{PoolSize: 2},
	}
}

func bootstrapForTest(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app
}

func TestBootstrap_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "cassandra"

	app, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err, "Bootstrap should fail for an unknown backend")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestBootstrap_MemoryStore(t *testing.T) {
	app := bootstrapForTest(t, memoryConfig())

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Service)
	assert.Equal(t, config.BackendMemory, app.Store.Backend)
	require.NoError(t, app.Start(context.Background()))
}

func TestBootstrap_FileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := memoryConfig()
	cfg.Store = config.StoreConfig{
		Backend: config.BackendFile,
		Tenancy: config.TenancyMulti,
		File: config.FileConfig{
			Path:       filepath.Join(dir, "store.json"),
			BackupDir:  filepath.Join(dir, "backups"),
			MaxBackups: 2,
		},
	}

	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	_, err = app.Service.CreateProject(context.Background(), "alice", map[string]any{"name": "Shop"})
	require.NoError(t, err)
	app.Shutdown()

	reopened := bootstrapForTest(t, cfg)
	projects, err := reopened.Service.ListProjects(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Shop", projects[0].Name)
}

func TestApplication_Start_WithoutStore(t *testing.T) {
	app := &Application{}
	require.Error(t, app.Start(context.Background()))
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	// Shutdown on empty application should not panic.
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown()
	}, "Shutdown on empty Application should not panic")
}

func TestJWTConfig(t *testing.T) {
	jwtCfg := JWTConfig(config.AuthConfig{SigningKey: "k", Issuer: "archgraph", TokenTTL: time.Hour})
	require.Equal(t, []byte("k"), jwtCfg.SigningKey)
	require.Equal(t, "archgraph", jwtCfg.Issuer)
	require.Equal(t, time.Hour, jwtCfg.ExpiresIn)
}
