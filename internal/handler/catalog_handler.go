package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type catalogService interface {
	Statuses(ctx context.Context) ([]models.Status, error)
	Industries(ctx context.Context) ([]models.Industry, error)
}

// CatalogHandler serves read-only reference data.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Statuses godoc
// @Summary Case status catalogue
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statuses [get]
func (h *CatalogHandler) Statuses(c *gin.Context) {
	statuses, err := h.service.Statuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Industries godoc
// @Summary Industry catalogue
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /industries [get]
func (h *CatalogHandler) Industries(c *gin.Context) {
	industries, err := h.service.Industries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, industries, nil)
}
