package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSystem handles GET /projects/:projectId/systems/:systemId.
func (s *Server) GetSystem(c *gin.Context) {
	sys, err := s.svc.GetSystem(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("systemId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sys)
}

// CreateSystem handles POST /projects/:projectId/systems. Without parentId
// the system is attached below the root.
func (s *Server) CreateSystem(c *gin.Context) {
	withBody(c, func(body any) {
		sys, err := s.svc.CreateSystem(c.Request.Context(), tenant(c), c.Param("projectId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, sys)
	})
}

// UpdateSystem handles PATCH /projects/:projectId/systems/:systemId.
func (s *Server) UpdateSystem(c *gin.Context) {
	withBody(c, func(body any) {
		sys, err := s.svc.UpdateSystem(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("systemId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, sys)
	})
}

// DeleteSystem handles DELETE /projects/:projectId/systems/:systemId.
func (s *Server) DeleteSystem(c *gin.Context) {
	if err := s.svc.DeleteSystem(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("systemId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
