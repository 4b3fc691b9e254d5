// Package logger holds the process-wide zap logger for archgraph.
//
// Init is called once from a command's main. Until then every helper writes
// to a no-op logger, so packages may log unconditionally. The level lives in a
// zap.AtomicLevel and can be changed while running through SetLevel or the
// HTTP handler the router mounts under /api/v1/admin/log/level.
//
// Import Path: archgraph.io/archgraph/internal/pkg/logger
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global      *zap.Logger
	atomicLevel = zap.NewAtomicLevel()
	once        sync.Once

	nop = zap.NewNop()
)

// Init builds the global logger. level is debug, info, warn or error;
// format is json (default) or console ("text" is accepted as an alias).
// Only the first call has an effect.
func Init(level, format string) error {
	var initErr error
	once.Do(func() {
		if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
			initErr = fmt.Errorf("parse log level %q: %w", level, err)
			return
		}
		l, err := newConfig(format).Build(zap.AddCallerSkip(1))
		if err != nil {
			initErr = fmt.Errorf("build logger: %w", err)
			return
		}
		global = l.With(zap.String("service", "archgraph"))
	})
	return initErr
}

func newConfig(format string) zap.Config {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = atomicLevel
	return cfg
}

// SetLevel changes the level of the running logger.
func SetLevel(level string) error {
	return atomicLevel.UnmarshalText([]byte(level))
}

// GetLevel returns the current level.
func GetLevel() zapcore.Level {
	return atomicLevel.Level()
}

// L returns the global logger, or a no-op logger before Init.
func L() *zap.Logger {
	if global == nil {
		return nop
	}
	return global
}

// Named returns a child logger tagged with a component name, e.g. a store
// backend.
func Named(component string) *zap.Logger {
	return L().With(zap.String("component", component))
}

// ForRequest returns a child logger carrying the request id and tenant of
// one HTTP request.
func ForRequest(requestID, userID string) *zap.Logger {
	return L().With(RequestID(requestID), Tenant(userID))
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// HTTPHandler exposes the atomic level as an http.Handler:
//
//	GET  /api/v1/admin/log/level                         → {"level":"info"}
//	PUT  /api/v1/admin/log/level -d '{"level":"debug"}'  → change level
func HTTPHandler() *zap.AtomicLevel {
	return &atomicLevel
}

// Sync flushes buffered entries. It is a no-op before Init.
func Sync() error {
	if global == nil {
		return nil
	}
	return global.Sync()
}
