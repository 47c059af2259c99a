package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

type userService interface {
	List(ctx context.Context, q dto.UserQuery, actor models.Actor) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id int64, actor models.Actor) (*models.User, error)
	Create(ctx context.Context, req dto.CreateUserRequest, actor models.Actor) (*models.User, error)
	Update(ctx context.Context, id int64, req dto.UpdateUserRequest, actor models.Actor) (*models.User, error)
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with pagination and filtering
// @Tags Users
// @Produce json
// @Param organisationId query int false "Organisation filter (system administrators only)"
// @Param role query string false "Role filter"
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	users, pagination, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
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
	user, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid user payload"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body dto.UpdateUserRequest true "User payload"
// @Success 200 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
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
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid user payload"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
