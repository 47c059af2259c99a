package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, userID int64) (*models.UserInfo, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
