package dto

import "github.com/rahulvs07/complyark-data-shield/internal/models"

// CreateUserRequest adds a staff member. OrganisationID is ignored for
// organisation administrators, who can only add users to their own tenant.
type CreateUserRequest struct {
	OrganisationID int64           `json:"organisationId" validate:"gte=0"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8"`
	FirstName      string          `json:"firstName" validate:"required,max=100"`
	LastName       string          `json:"lastName" validate:"omitempty,max=100"`
	Role           models.UserRole `json:"role" validate:"required,oneof=SYSTEM_ADMIN ORG_ADMIN USER"`
}

// UpdateUserRequest patches a staff member.
type UpdateUserRequest struct {
	FirstName *string          `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string          `json:"lastName" validate:"omitempty,max=100"`
	Role      *models.UserRole `json:"role" validate:"omitempty,oneof=SYSTEM_ADMIN ORG_ADMIN USER"`
	Password  *string          `json:"password" validate:"omitempty,min=8"`
	IsActive  *bool            `json:"isActive"`
}

// UserQuery holds list filters bound from the query string.
type UserQuery struct {
	OrganisationID *int64 `form:"organisationId"`
	Role           string `form:"role"`
	Search         string `form:"q"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
}
