package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type organisationService interface {
	List(ctx context.Context, actor models.Actor) ([]models.Organisation, error)
	Get(ctx context.Context, id int64, actor models.Actor) (*models.Organisation, error)
	Create(ctx context.Context, req dto.CreateOrganisationRequest, actor models.Actor) (*models.Organisation, error)
	Update(ctx context.Context, id int64, req dto.UpdateOrganisationRequest, actor models.Actor) (*models.Organisation, error)
	IntakeLink(ctx context.Context, id int64, actor models.Actor) (*dto.IntakeLinkResponse, error)
}

// OrganisationHandler manages tenants.
type OrganisationHandler struct {
	service organisationService
}

// NewOrganisationHandler constructs the handler.
func NewOrganisationHandler(service organisationService) *OrganisationHandler {
	return &OrganisationHandler{service: service}
}

// List godoc
// @Summary List organisations
// @Tags Organisations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /organisations [get]
func (h *OrganisationHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	orgs, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orgs, nil)
}

// Get godoc
// @Summary Get organisation
// @Tags Organisations
// @Produce json
// @Param id path int true "Organisation ID"
// @Success 200 {object} response.Envelope
// @Router /organisations/{id} [get]
func (h *OrganisationHandler) Get(c *gin.Context) {
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
	org, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, org, nil)
}

// Create godoc
// @Summary Create organisation
// @Tags Organisations
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrganisationRequest true "Organisation"
// @Success 201 {object} response.Envelope
// @Router /organisations [post]
func (h *OrganisationHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateOrganisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid organisation payload"))
		return
	}
	org, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, org)
}

// Update godoc
// @Summary Update organisation
// @Tags Organisations
// @Accept json
// @Produce json
// @Param id path int true "Organisation ID"
// @Param payload body dto.UpdateOrganisationRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /organisations/{id} [put]
func (h *OrganisationHandler) Update(c *gin.Context) {
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
	var req dto.UpdateOrganisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid organisation payload"))
		return
	}
	org, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, org, nil)
}

// IntakeLink godoc
// @Summary Public intake link
// @Tags Organisations
// @Produce json
// @Param id path int true "Organisation ID"
// @Success 200 {object} response.Envelope
// @Router /organisations/{id}/intake-link [get]
func (h *OrganisationHandler) IntakeLink(c *gin.Context) {
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
	link, err := h.service.IntakeLink(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
