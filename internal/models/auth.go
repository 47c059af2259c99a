package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued access token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID             int64    `json:"id"`
	OrganisationID int64    `json:"organisation_id"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	Role           UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID         int64    `json:"user_id"`
	OrganisationID int64    `json:"organisation_id"`
	Role           UserRole `json:"role"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the identity performing a case operation.
type Actor struct {
	UserID         int64
	OrganisationID int64
	Name           string
	Role           UserRole
}

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, OrganisationID: c.OrganisationID, Name: c.FullName, Role: c.Role}
}

// IsSystemAdmin reports whether the actor can see every organisation.
func (a Actor) IsSystemAdmin() bool {
	return a.Role == RoleSystemAdmin
}

// CanManage reports whether the actor administers cases and users.
func (a Actor) CanManage() bool {
	return a.Role == RoleSystemAdmin || a.Role == RoleOrgAdmin
}

// CanAccessOrganisation reports whether the actor may read data of organisationID.
func (a Actor) CanAccessOrganisation(organisationID int64) bool {
	return a.IsSystemAdmin() || a.OrganisationID == organisationID
}
