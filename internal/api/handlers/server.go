// Package handlers maps the /api/v1 routes onto the aggregate service.
//
// Request bodies are decoded into plain JSON values and handed to the service
// untouched; the service owns all validation. Failures are attached with
// c.Error and rendered by middleware.ErrorHandler.
//
// Import Path: archgraph.io/archgraph/internal/api/handlers
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"archgraph.io/archgraph/internal/api/middleware"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/service"
	"archgraph.io/archgraph/internal/store"
)

// Server implements the HTTP handlers.
type Server struct {
	svc   *service.Service
	store store.Store
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Service *service.Service
	// Store is probed by the readiness check.
	Store store.Store
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		svc:   deps.Service,
		store: deps.Store,
	}
}

// RegisterRoutes mounts every handler on rg, normally the /api/v1 group.
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	health.GET("/live", s.GetLiveness)
	health.GET("/ready", s.GetReadiness)

	rg.GET("/projects", s.ListProjects)
	rg.POST("/projects", s.CreateProject)

	p := rg.Group("/projects/:projectId")
	p.GET("", s.GetProject)
	p.PATCH("", s.UpdateProject)
	p.DELETE("", s.DeleteProject)

	p.POST("/systems", s.CreateSystem)
	p.GET("/systems/:systemId", s.GetSystem)
	p.PATCH("/systems/:systemId", s.UpdateSystem)
	p.DELETE("/systems/:systemId", s.DeleteSystem)

	p.POST("/flows", s.CreateFlow)
	p.GET("/flows/:flowId", s.GetFlow)
	p.PATCH("/flows/:flowId", s.UpdateFlow)
	p.DELETE("/flows/:flowId", s.DeleteFlow)

	p.POST("/data-models", s.CreateDataModel)
	p.GET("/data-models/:dataModelId", s.GetDataModel)
	p.PATCH("/data-models/:dataModelId", s.UpdateDataModel)
	p.DELETE("/data-models/:dataModelId", s.DeleteDataModel)

	p.POST("/components", s.CreateComponent)
	p.GET("/components/:componentId", s.GetComponent)
	p.PATCH("/components/:componentId", s.UpdateComponent)
	p.DELETE("/components/:componentId", s.DeleteComponent)
	p.POST("/components/:componentId/entry-points", s.CreateEntryPoint)

	p.GET("/entry-points/:entryPointId", s.GetEntryPoint)
	p.PATCH("/entry-points/:entryPointId", s.UpdateEntryPoint)
	p.DELETE("/entry-points/:entryPointId", s.DeleteEntryPoint)
}

// tenant returns the authenticated user id. Without auth it is empty, which
// the store maps to the default tenant.
func tenant(c *gin.Context) string {
	return middleware.GetUserID(c.Request.Context())
}

// decodeBody reads the request body as an untyped JSON value. Numbers stay
// json.Number so integer constraint values survive unchanged. An empty body
// is an empty object.
func decodeBody(c *gin.Context) (any, error) {
	if c.Request.Body == nil {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "request body is not valid JSON", http.StatusBadRequest)
	}
	if dec.More() {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "request body holds more than one JSON value")
	}
	return body, nil
}

// withBody decodes the body and reports decoding failures through c.Error.
func withBody(c *gin.Context, fn func(body any)) {
	body, err := decodeBody(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	fn(body)
}
