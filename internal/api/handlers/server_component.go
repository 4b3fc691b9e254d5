package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetComponent handles GET /projects/:projectId/components/:componentId.
func (s *Server) GetComponent(c *gin.Context) {
	comp, err := s.svc.GetComponent(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("componentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// CreateComponent handles POST /projects/:projectId/components.
func (s *Server) CreateComponent(c *gin.Context) {
	withBody(c, func(body any) {
		comp, err := s.svc.CreateComponent(c.Request.Context(), tenant(c), c.Param("projectId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, comp)
	})
}

// UpdateComponent handles PATCH /projects/:projectId/components/:componentId.
func (s *Server) UpdateComponent(c *gin.Context) {
	withBody(c, func(body any) {
		comp, err := s.svc.UpdateComponent(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("componentId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, comp)
	})
}

// DeleteComponent handles DELETE /projects/:projectId/components/:componentId.
// The component's entry points are deleted with it.
func (s *Server) DeleteComponent(c *gin.Context) {
	if err := s.svc.DeleteComponent(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("componentId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetEntryPoint handles GET /projects/:projectId/entry-points/:entryPointId.
func (s *Server) GetEntryPoint(c *gin.Context) {
	ep, err := s.svc.GetEntryPoint(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("entryPointId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

// CreateEntryPoint handles POST /projects/:projectId/components/:componentId/entry-points.
func (s *Server) CreateEntryPoint(c *gin.Context) {
	withBody(c, func(body any) {
		ep, err := s.svc.CreateEntryPoint(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("componentId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, ep)
	})
}

// UpdateEntryPoint handles PATCH /projects/:projectId/entry-points/:entryPointId.
func (s *Server) UpdateEntryPoint(c *gin.Context) {
	withBody(c, func(body any) {
		ep, err := s.svc.UpdateEntryPoint(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("entryPointId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, ep)
	})
}

// DeleteEntryPoint handles DELETE /projects/:projectId/entry-points/:entryPointId.
func (s *Server) DeleteEntryPoint(c *gin.Context) {
	if err := s.svc.DeleteEntryPoint(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("entryPointId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
