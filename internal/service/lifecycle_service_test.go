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

func newTestLifecycle(store repository.Store, cfg LifecycleConfig) (*LifecycleService, *recordingLifecycleMetrics, *recordingInvalidator) {
	metrics := &recordingLifecycleMetrics{}
	invalidator := &recordingInvalidator{}
	svc := NewLifecycleService(store, nil, metrics, invalidator, nil, cfg)
	svc.now = clockAt(fixedNow.Add(48 * time.Hour))
	return svc, metrics, invalidator
}

func TestChangeStatusAppendsHistory(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, metrics, invalidator := newTestLifecycle(store, LifecycleConfig{})

	updated, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.StatusID)
	assert.Equal(t, c.DueDate, updated.DueDate)
	assert.Nil(t, updated.ClosedAt)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	last := history[1]
	assert.Equal(t, "InProgress", last.StatusName)
	assert.Equal(t, "Status changed to InProgress", last.Comment)
	assert.Equal(t, "Ava Admin", last.UpdatedByName)
	assert.Equal(t, int64(900), last.UpdatedBy)
	assert.Equal(t, UnassignedName, last.AssignedToName)
	assert.Equal(t, fixedNow.Add(48*time.Hour), last.UpdatedAt)

	assert.Equal(t, []string{"InProgress"}, metrics.transitions)
	assert.Equal(t, []int64{org.ID}, invalidator.orgs)
}

func TestChangeStatusSameStatusAppendsOneEntry(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusSubmitted, Comment: "still waiting"}, orgAdmin(org.ID))
	require.NoError(t, err)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "still waiting", history[1].Comment)
}

func TestHistoryCountTracksTransitions(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	sequence := []int64{models.StatusInProgress, models.StatusAwaitingInfo, models.StatusEscalated, models.StatusInProgress, models.StatusClosed}
	for _, statusID := range sequence {
		_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: statusID}, orgAdmin(org.ID))
		require.NoError(t, err)
	}
	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: 99}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrInvalidStatus)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, len(sequence)+1)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].ID, history[i-1].ID)
	}
}

func TestChangeStatusClosesCase(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	closed, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed, Comment: "data sent"}, orgAdmin(org.ID))
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, fixedNow.Add(48*time.Hour), *closed.ClosedAt)
	assert.Equal(t, "data sent", closed.ClosureComment)
	assert.True(t, closed.CompletedOnTime)

	stored, err := store.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsClosed())

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closed", history[len(history)-1].StatusName)
}

func TestChangeStatusClosingLateIsNotOnTime(t *testing.T) {
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})
	svc.now = clockAt(c.DueDate.Add(time.Minute))

	closed, err := svc.ChangeStatus(context.Background(), c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.False(t, closed.CompletedOnTime)
}

func TestChangeStatusOnClosedCase(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed, Comment: "done"}, orgAdmin(org.ID))
	require.NoError(t, err)

	again, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed, Comment: "closed again"}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.True(t, again.IsClosed())
	assert.Equal(t, "closed again", again.ClosureComment)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Closed", history[2].StatusName)

	reopened, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, reopened.StatusID)
	assert.Nil(t, reopened.ClosedAt)
	assert.Empty(t, reopened.ClosureComment)
	assert.False(t, reopened.CompletedOnTime)

	history, err = store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestChangeStatusLockClosed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{LockClosed: true})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(org.ID))
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrCaseClosed)
	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrCaseClosed)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestChangeStatusRejectsUnknownAndInactiveStatus(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, metrics, _ := newTestLifecycle(store, LifecycleConfig{})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: 42}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrInvalidStatus)

	require.NoError(t, store.SetStatusActive(models.StatusAwaitingInfo, false))
	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusAwaitingInfo}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrInvalidStatus)

	stored, err := store.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.StatusID)
	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Empty(t, metrics.transitions)
}

func TestChangeStatusHidesMissingAndForeignCases(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	c := submitCase(t, store, acme.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	_, err := svc.ChangeStatus(ctx, 999, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(globex.ID))
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, systemAdmin())
	require.NoError(t, err)
}

func TestChangeStatusClosureCommentRequired(t *testing.T) {
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{RequireClosureComment: true})

	_, err := svc.ChangeStatus(context.Background(), c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed, Comment: "   "}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrValidation)

	stored, err := store.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsClosed())
}

func TestChangeStatusRecomputesDueDate(t *testing.T) {
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{RecomputeDueDate: true})

	updated, err := svc.ChangeStatus(context.Background(), c.ID, dto.ChangeStatusRequest{StatusID: models.StatusEscalated}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(48*time.Hour).AddDate(0, 0, 2), updated.DueDate)
}

func TestAssignRecordsAssignee(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	staff := seedUser(t, store, org.ID, "sam@acme.io", models.RoleUser)
	c := submitCase(t, store, org.ID)
	svc, metrics, invalidator := newTestLifecycle(store, LifecycleConfig{})

	updated, err := svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: staff.ID}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.Equal(t, staff.ID, updated.AssignedTo)
	assert.Equal(t, models.StatusSubmitted, updated.StatusID)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Assigned to Sam Rivera", history[1].Comment)
	assert.Equal(t, "Sam Rivera", history[1].AssignedToName)
	assert.Equal(t, "Submitted", history[1].StatusName)
	assert.Equal(t, 1, metrics.assignments)
	assert.Equal(t, []int64{org.ID}, invalidator.orgs)

	_, err = svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusInProgress}, orgAdmin(org.ID))
	require.NoError(t, err)
	history, err = store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Rivera", history[2].AssignedToName)
}

func TestAssignValidatesAssigneeAndRole(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	outsider := seedUser(t, store, globex.ID, "out@globex.io", models.RoleUser)
	c := submitCase(t, store, acme.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	staff := models.Actor{UserID: 5, OrganisationID: acme.ID, Name: "Staff", Role: models.RoleUser}
	_, err := svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: outsider.ID}, staff)
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: outsider.ID}, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: 4242}, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Assign(ctx, c.ID, dto.AssignCaseRequest{}, orgAdmin(acme.ID))
	requireCode(t, err, appErrors.ErrValidation)

	history, err := store.ListHistory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAssignClosedCase(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	staff := seedUser(t, store, org.ID, "sam@acme.io", models.RoleUser)
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(org.ID))
	require.NoError(t, err)
	assigned, err := svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: staff.ID}, orgAdmin(org.ID))
	require.NoError(t, err)
	assert.Equal(t, staff.ID, assigned.AssignedTo)
	assert.True(t, assigned.IsClosed())
}

func TestAssignRejectsLockedClosedCase(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := seedOrganisation(t, store, "Acme")
	staff := seedUser(t, store, org.ID, "sam@acme.io", models.RoleUser)
	c := submitCase(t, store, org.ID)
	svc, _, _ := newTestLifecycle(store, LifecycleConfig{LockClosed: true})

	_, err := svc.ChangeStatus(ctx, c.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(org.ID))
	require.NoError(t, err)
	_, err = svc.Assign(ctx, c.ID, dto.AssignCaseRequest{AssigneeID: staff.ID}, orgAdmin(org.ID))
	requireCode(t, err, appErrors.ErrCaseClosed)
}
