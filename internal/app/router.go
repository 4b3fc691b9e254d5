package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archgraph.io/archgraph/internal/api/handlers"
	"archgraph.io/archgraph/internal/api/middleware"
	"archgraph.io/archgraph/internal/config"
	"archgraph.io/archgraph/internal/pkg/logger"
)

const apiBasePath = "/api/v1"

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/api/v1/health/",
}

// defaultCORSOrigins is used when no usable origin is configured.
var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), cors.New(buildCORSConfig(cfg)), middleware.ErrorHandler())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group(apiBasePath)
	if cfg.Auth.Enabled {
		api.Use(jwtSkipPublic(jwtCfg))
	}
	api.GET("/admin/log/level", gin.WrapH(logger.HTTPHandler()))
	api.PUT("/admin/log/level", gin.WrapH(logger.HTTPHandler()))
	server.RegisterRoutes(api)
	return router
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public routes.
func jwtSkipPublic(cfg middleware.JWTConfig) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(cfg)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}

// buildCORSConfig turns the CORS settings into a gin-contrib/cors config.
// A "*" origin is only honoured with UnsafeAllowAllOrigins, which also turns
// credentials off.
func buildCORSConfig(cfg *config.Config) cors.Config {
	out := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.CORS.UnsafeAllowAllOrigins {
		out.AllowAllOrigins = true
		return out
	}

	origins := make([]string, 0, len(cfg.CORS.AllowedOrigins))
	for _, origin := range cfg.CORS.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultCORSOrigins...)
	}
	out.AllowOrigins = origins
	out.AllowCredentials = cfg.CORS.AllowCredentials
	return out
}
