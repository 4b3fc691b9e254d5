package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/store"
)

// Health status values.
const (
	HealthStatusOk       = "ok"
	HealthStatusDegraded = "degraded"
)

// Health is the probe response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: HealthStatusOk})
}

// GetReadiness handles GET /health/ready. The store is ready when the default
// tenant's aggregate can be loaded.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if s.store == nil {
		checks["store"] = "missing"
		allHealthy = false
	} else if _, err := s.store.Load(c.Request.Context(), store.DefaultTenant); err != nil {
		logger.Warn("Readiness store check failed", zap.Error(err))
		checks["store"] = "error"
		allHealthy = false
	} else {
		checks["store"] = "ok"
	}

	status := HealthStatusOk
	httpStatus := http.StatusOK
	if !allHealthy {
		status = HealthStatusDegraded
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, Health{
		Status: status,
		Checks: checks,
	})
}
