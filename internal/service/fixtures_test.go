package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want.Code, appErrors.FromError(err).Code, err.Error())
}

func seedOrganisation(t *testing.T, store repository.Store, name string) *models.Organisation {
	t.Helper()
	org := &models.Organisation{Name: name, IndustryID: 1, IsActive: true}
	require.NoError(t, store.CreateOrganisation(context.Background(), org))
	return org
}

func seedUser(t *testing.T, store repository.Store, orgID int64, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{OrganisationID: orgID, Email: email, FirstName: "Sam", LastName: "Rivera", Role: role, IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func newTestIntake(store repository.Store) *IntakeService {
	svc := NewIntakeService(store, nil, nil, nil, nil, IntakeConfig{})
	svc.now = clockAt(fixedNow)
	return svc
}

func joLeeRequest(orgID int64) dto.SubmitCaseRequest {
	return dto.SubmitCaseRequest{
		Kind:           models.CaseKindDataRequest,
		FirstName:      "Jo",
		LastName:       "Lee",
		Email:          "jo@x.io",
		Phone:          "123",
		RequestType:    models.RequestTypeAccess,
		Comment:        "please send my data",
		OrganisationID: orgID,
	}
}

func submitCase(t *testing.T, store repository.Store, orgID int64) *models.Case {
	t.Helper()
	c, err := newTestIntake(store).Submit(context.Background(), joLeeRequest(orgID))
	require.NoError(t, err)
	return c
}

func orgAdmin(orgID int64) models.Actor {
	return models.Actor{UserID: 900, OrganisationID: orgID, Name: "Ava Admin", Role: models.RoleOrgAdmin}
}

func systemAdmin() models.Actor {
	return models.Actor{UserID: 1, Name: "System Administrator", Role: models.RoleSystemAdmin}
}

type recordingInvalidator struct {
	orgs []int64
}

func (r *recordingInvalidator) InvalidateOrganisation(_ context.Context, organisationID int64) {
	r.orgs = append(r.orgs, organisationID)
}

type recordingLifecycleMetrics struct {
	transitions []string
	assignments int
}

func (r *recordingLifecycleMetrics) RecordTransition(statusName string) {
	r.transitions = append(r.transitions, statusName)
}

func (r *recordingLifecycleMetrics) RecordAssignment() {
	r.assignments++
}
