package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archgraph.io/archgraph/internal/domain"
)

// ProjectList is the response of GET /projects.
type ProjectList struct {
	Items []domain.Project `json:"items"`
	Total int              `json:"total"`
}

// ListProjects handles GET /projects.
func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context(), tenant(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, ProjectList{Items: projects, Total: len(projects)})
}

// GetProject handles GET /projects/:projectId.
func (s *Server) GetProject(c *gin.Context) {
	p, err := s.svc.GetProject(c.Request.Context(), tenant(c), c.Param("projectId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProject handles POST /projects.
func (s *Server) CreateProject(c *gin.Context) {
	withBody(c, func(body any) {
		p, err := s.svc.CreateProject(c.Request.Context(), tenant(c), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})
}

// UpdateProject handles PATCH /projects/:projectId.
func (s *Server) UpdateProject(c *gin.Context) {
	withBody(c, func(body any) {
		p, err := s.svc.UpdateProject(c.Request.Context(), tenant(c), c.Param("projectId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, p)
	})
}

// DeleteProject handles DELETE /projects/:projectId.
func (s *Server) DeleteProject(c *gin.Context) {
	if err := s.svc.DeleteProject(c.Request.Context(), tenant(c), c.Param("projectId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
