package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/service"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, req dto.ExportRequest, actor models.Actor) (*dto.ExportJobResponse, error)
	GetJob(ctx context.Context, id string, actor models.Actor) (*dto.ExportJobResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous case register exports.
type ExportHandler struct {
	service exportJobService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportJobService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Create godoc
// @Summary Queue a case register export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are disabled"))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Get godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are disabled"))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /public/export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are disabled"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, result.File, nil)
}
