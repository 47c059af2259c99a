package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

func TestCaseListIsScopedToOrganisation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	submitCase(t, store, acme.ID)
	submitCase(t, store, globex.ID)
	submitCase(t, store, acme.ID)
	svc := NewCaseService(store, nil)

	views, page, err := svc.List(ctx, dto.CaseQuery{OrganisationID: &globex.ID}, orgAdmin(acme.ID))
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, acme.ID, v.OrganisationID)
		assert.Equal(t, "Submitted", v.StatusName)
		assert.Equal(t, UnassignedName, v.AssignedToName)
	}
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	all, page, err := svc.List(ctx, dto.CaseQuery{}, systemAdmin())
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, page.TotalCount)

	onlyGlobex, _, err := svc.List(ctx, dto.CaseQuery{OrganisationID: &globex.ID}, systemAdmin())
	require.NoError(t, err)
	require.Len(t, onlyGlobex, 1)
	assert.Equal(t, globex.ID, onlyGlobex[0].OrganisationID)
}

func TestCaseListFiltersAndFlagsOverdue(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	first := submitCase(t, store, acme.ID)
	submitCase(t, store, acme.ID)
	lifecycle, _, _ := newTestLifecycle(store, LifecycleConfig{})
	_, err := lifecycle.ChangeStatus(ctx, first.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(acme.ID))
	require.NoError(t, err)

	svc := NewCaseService(store, nil)
	svc.now = clockAt(fixedNow.AddDate(0, 0, 30))

	open, _, err := svc.List(ctx, dto.CaseQuery{OpenOnly: true}, orgAdmin(acme.ID))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].Overdue)

	statusID := models.StatusClosed
	closed, _, err := svc.List(ctx, dto.CaseQuery{StatusID: &statusID}, orgAdmin(acme.ID))
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, first.ID, closed[0].ID)
	assert.False(t, closed[0].Overdue)

	_, _, err = svc.List(ctx, dto.CaseQuery{Kind: "complaint"}, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrValidation)
}

func TestCaseGetReturnsHistoryAndNames(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	staff := seedUser(t, store, acme.ID, "sam@acme.io", models.RoleUser)
	c := submitCase(t, store, acme.ID)
	lifecycle, _, _ := newTestLifecycle(store, LifecycleConfig{})
	_, err := lifecycle.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: staff.ID}, orgAdmin(acme.ID))
	require.NoError(t, err)

	svc := NewCaseService(store, nil)
	detail, err := svc.Get(ctx, c.ID, orgAdmin(acme.ID))
	require.NoError(t, err)
	assert.Equal(t, "Sam Rivera", detail.AssignedToName)
	assert.Equal(t, "Submitted", detail.StatusName)
	require.Len(t, detail.History, 2)
	assert.Equal(t, "Request created by data principal", detail.History[0].Comment)

	history, err := svc.History(ctx, c.ID, orgAdmin(acme.ID))
	require.NoError(t, err)
	assert.Equal(t, detail.History, history)
}

func TestCaseGetHidesOtherTenants(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	c := submitCase(t, store, acme.ID)
	svc := NewCaseService(store, nil)

	_, err := svc.Get(ctx, c.ID, orgAdmin(globex.ID))
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.History(ctx, c.ID, orgAdmin(globex.ID))
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(ctx, 12345, systemAdmin())
	requireCode(t, err, appErrors.ErrNotFound)
}
