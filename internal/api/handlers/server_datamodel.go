package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDataModel handles GET /projects/:projectId/data-models/:dataModelId.
func (s *Server) GetDataModel(c *gin.Context) {
	model, err := s.svc.GetDataModel(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("dataModelId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model)
}

// CreateDataModel handles POST /projects/:projectId/data-models.
func (s *Server) CreateDataModel(c *gin.Context) {
	withBody(c, func(body any) {
		model, err := s.svc.CreateDataModel(c.Request.Context(), tenant(c), c.Param("projectId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, model)
	})
}

// UpdateDataModel handles PATCH /projects/:projectId/data-models/:dataModelId.
// Attributes sent with a known id keep their identity and omitted fields.
func (s *Server) UpdateDataModel(c *gin.Context) {
	withBody(c, func(body any) {
		model, err := s.svc.UpdateDataModel(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("dataModelId"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, model)
	})
}

// DeleteDataModel handles DELETE /projects/:projectId/data-models/:dataModelId.
func (s *Server) DeleteDataModel(c *gin.Context) {
	if err := s.svc.DeleteDataModel(c.Request.Context(), tenant(c), c.Param("projectId"), c.Param("dataModelId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
