package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/middleware"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, actor models.Actor, organisationID *int64) (*dto.DashboardSummary, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Case dashboard summary
// @Tags Dashboard
// @Produce json
// @Param organisationId query int false "Organisation (system administrators only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var organisationID *int64
	if raw := strings.TrimSpace(c.Query("organisationId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "organisationId must be a positive integer"))
			return
		}
		organisationID = &id
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), actor, organisationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
