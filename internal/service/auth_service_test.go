package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

func seedLoginUser(t *testing.T, store repository.Store, orgID int64, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		OrganisationID: orgID,
		Email:          email,
		PasswordHash:   string(hash),
		FirstName:      "Ava",
		LastName:       "Admin",
		Role:           models.RoleOrgAdmin,
		IsActive:       active,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func newTestAuth(store repository.Store) *AuthService {
	svc := NewAuthService(store, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "complyark"})
	svc.now = clockAt(time.Now().Truncate(time.Second))
	return svc
}

func TestLoginIssuesTokenWithTenantClaims(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	user := seedLoginUser(t, store, acme.ID, "ava@acme.io", "password123", true)
	svc := newTestAuth(store)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: " AVA@acme.io ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "Ava Admin", resp.User.FullName)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, acme.ID, claims.OrganisationID)
	assert.Equal(t, models.RoleOrgAdmin, claims.Role)
	assert.Equal(t, "complyark", claims.Issuer)

	actor := models.ActorFromClaims(claims)
	assert.Equal(t, "Ava Admin", actor.Name)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	seedLoginUser(t, store, acme.ID, "ava@acme.io", "password123", true)
	seedLoginUser(t, store, acme.ID, "gone@acme.io", "password123", false)
	svc := newTestAuth(store)

	_, err := svc.Login(ctx, models.LoginRequest{Email: "ava@acme.io", Password: "wrong"})
	requireCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@acme.io", Password: "password123"})
	requireCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "gone@acme.io", Password: "password123"})
	requireCode(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email"})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestValidateTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	seedLoginUser(t, store, acme.ID, "ava@acme.io", "password123", true)
	svc := newTestAuth(store)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ava@acme.io", Password: "password123"})
	require.NoError(t, err)

	later := newTestAuth(store)
	later.now = clockAt(time.Now().Add(2 * time.Hour))
	_, err = later.ValidateToken(resp.AccessToken)
	requireCode(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(store, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	requireCode(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestMeReturnsProfile(t *testing.T) {
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	user := seedLoginUser(t, store, acme.ID, "ava@acme.io", "password123", true)
	svc := newTestAuth(store)

	info, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ava@acme.io", info.Email)

	_, err = svc.Me(context.Background(), 999)
	requireCode(t, err, appErrors.ErrUnauthorized)
}
