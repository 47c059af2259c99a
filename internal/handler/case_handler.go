package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type caseQueryService interface {
	List(ctx context.Context, q dto.CaseQuery, actor models.Actor) ([]dto.CaseView, *models.Pagination, error)
	Get(ctx context.Context, id int64, actor models.Actor) (*dto.CaseDetail, error)
	History(ctx context.Context, id int64, actor models.Actor) ([]models.HistoryEntry, error)
}

type caseLifecycleService interface {
	ChangeStatus(ctx context.Context, caseID int64, req dto.ChangeStatusRequest, actor models.Actor) (*models.Case, error)
	Assign(ctx context.Context, caseID int64, req dto.AssignCaseRequest, actor models.Actor) (*models.Case, error)
}

// CaseHandler exposes case queries and lifecycle transitions to staff.
type CaseHandler struct {
	cases     caseQueryService
	lifecycle caseLifecycleService
}

// NewCaseHandler constructs the handler.
func NewCaseHandler(cases caseQueryService, lifecycle caseLifecycleService) *CaseHandler {
	return &CaseHandler{cases: cases, lifecycle: lifecycle}
}

// List godoc
// @Summary List cases
// @Tags Cases
// @Produce json
// @Param organisationId query int false "Organisation filter (system administrators only)"
// @Param kind query string false "DATA_PRINCIPAL_REQUEST or GRIEVANCE"
// @Param statusId query int false "Status filter"
// @Param assignedTo query int false "Assignee filter"
// @Param open query bool false "Only open cases"
// @Param q query string false "Search requester name or email"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.CaseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	items, pagination, err := h.cases.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get case with history
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.cases.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// History godoc
// @Summary Case history
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/history [get]
func (h *CaseHandler) History(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.cases.History(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ChangeStatus godoc
// @Summary Change case status
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.ChangeStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /cases/{id}/status [post]
func (h *CaseHandler) ChangeStatus(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	updated, err := h.lifecycle.ChangeStatus(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Assign godoc
// @Summary Assign case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.AssignCaseRequest true "Assignee"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cases/{id}/assign [post]
func (h *CaseHandler) Assign(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid assignment payload"))
		return
	}
	updated, err := h.lifecycle.Assign(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
