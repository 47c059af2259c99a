package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type intakeService interface {
	ResolveOrganisation(ctx context.Context, token string) (*models.Organisation, error)
	SubmitWithToken(ctx context.Context, token string, req dto.SubmitCaseRequest) (*models.Case, error)
	StatusName(ctx context.Context, statusID int64) string
}

// IntakeHandler serves the unauthenticated request form.
type IntakeHandler struct {
	service intakeService
}

// NewIntakeHandler constructs the handler.
func NewIntakeHandler(service intakeService) *IntakeHandler {
	return &IntakeHandler{service: service}
}

// Organisation godoc
// @Summary Resolve intake link
// @Description Returns the organisation behind an intake token and the request types it accepts
// @Tags Intake
// @Produce json
// @Param token path string true "Intake token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/intake/{token} [get]
func (h *IntakeHandler) Organisation(c *gin.Context) {
	org, err := h.service.ResolveOrganisation(c.Request.Context(), strings.TrimSpace(c.Param("token")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.IntakeOrganisation{
		ID:           org.ID,
		Name:         org.Name,
		IndustryName: org.IndustryName,
		RequestTypes: []models.RequestType{
			models.RequestTypeAccess,
			models.RequestTypeCorrection,
			models.RequestTypeNomination,
			models.RequestTypeErasure,
		},
	}, nil)
}

// Submit godoc
// @Summary Submit a request or grievance
// @Tags Intake
// @Accept json
// @Produce json
// @Param token path string true "Intake token"
// @Param payload body dto.SubmitCaseRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/intake/{token}/cases [post]
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req dto.SubmitCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid submission payload"))
		return
	}
	created, err := h.service.SubmitWithToken(c.Request.Context(), strings.TrimSpace(c.Param("token")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SubmitCaseResponse{
		CaseID:    created.ID,
		Kind:      created.Kind,
		Status:    h.service.StatusName(c.Request.Context(), created.StatusID),
		DueDate:   created.DueDate,
		CreatedAt: created.CreatedAt,
	})
}
