package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSystemAdmin UserRole = "SYSTEM_ADMIN"
	RoleOrgAdmin    UserRole = "ORG_ADMIN"
	RoleUser        UserRole = "USER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleSystemAdmin || r == RoleOrgAdmin || r == RoleUser
}

// User is a staff member. System administrators belong to organisation 0.
type User struct {
	ID             int64      `db:"id" json:"id"`
	OrganisationID int64      `db:"organisation_id" json:"organisation_id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Role           UserRole   `db:"role" json:"role"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	OrganisationID *int64
	Role           *UserRole
	Active         *bool
	Search         string
	Page           int
	PageSize       int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
