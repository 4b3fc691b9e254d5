package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetFlow handles GET /projects/:projectId/flows/:flowId.
func (s *Server) GetFlow(c *gin.Context) {
	flow, err := s.svc.GetFlow(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("flowId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

// CreateFlow handles POST /projects/:projectId/flows.
func (s *Server) CreateFlow(c *gin.Context) {
	withBody(c, func(body any) {
		flow, err := s.svc.CreateFlow(c.Request.Context(), tenant(c), c.Param("projectId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, flow)
	})
}

// UpdateFlow handles PATCH /projects/:projectId/flows/:flowId.
func (s *Server) UpdateFlow(c *gin.Context) {
	withBody(c, func(body any) {
		flow, err := s.svc.UpdateFlow(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("flowId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, flow)
	})
}

// DeleteFlow handles DELETE /projects/:projectId/flows/:flowId.
func (s *Server) DeleteFlow(c *gin.Context) {
	if err := s.svc.DeleteFlow(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("flowId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
