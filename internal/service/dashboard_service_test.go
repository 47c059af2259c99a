package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func TestDashboardSummaryCounts(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	globex := seedOrganisation(t, store, "Globex")
	intake := newTestIntake(store)

	first := submitCase(t, store, acme.ID)
	second := submitCase(t, store, acme.ID)
	grievance := joLeeRequest(acme.ID)
	grievance.Kind = models.CaseKindGrievance
	_, err := intake.Submit(ctx, grievance)
	require.NoError(t, err)
	submitCase(t, store, globex.ID)

	lifecycle, _, _ := newTestLifecycle(store, LifecycleConfig{})
	_, err = lifecycle.ChangeStatus(ctx, first.ID, dto.ChangeStatusRequest{StatusID: models.StatusClosed}, orgAdmin(acme.ID))
	require.NoError(t, err)
	_, err = lifecycle.ChangeStatus(ctx, second.ID, dto.ChangeStatusRequest{StatusID: models.StatusEscalated}, orgAdmin(acme.ID))
	require.NoError(t, err)

	svc := NewDashboardService(DashboardServiceParams{Store: store})
	svc.now = clockAt(fixedNow.AddDate(0, 0, 10))

	summary, cached, err := svc.Summary(ctx, orgAdmin(acme.ID), &globex.ID)
	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, summary.OrganisationID)
	assert.Equal(t, acme.ID, *summary.OrganisationID)
	assert.Equal(t, 3, summary.TotalCases)
	assert.Equal(t, 2, summary.DataRequests)
	assert.Equal(t, 1, summary.Grievances)
	assert.Equal(t, 2, summary.OpenCases)
	assert.Equal(t, 1, summary.EscalatedCases)
	assert.Equal(t, 2, summary.OverdueCases)
	assert.Equal(t, 2, summary.UnassignedCases)
	assert.Equal(t, 1, summary.ClosedOnTime)
	assert.Zero(t, summary.ClosedLate)

	require.Len(t, summary.ByStatus, len(models.DefaultStatuses()))
	counts := map[string]int{}
	for _, sc := range summary.ByStatus {
		counts[sc.Name] = sc.Count
	}
	assert.Equal(t, map[string]int{"Submitted": 1, "InProgress": 0, "AwaitingInfo": 0, "Reassigned": 0, "Escalated": 1, "Closed": 1}, counts)
	assert.Equal(t, dto.TypeCount{RequestType: "Access", Count: 2}, summary.ByRequestType[0])
	assert.Len(t, summary.OpenTasks, 2)
	require.Len(t, summary.EscalatedTasks, 1)
	assert.Equal(t, second.ID, summary.EscalatedTasks[0].CaseID)

	all, _, err := svc.Summary(ctx, systemAdmin(), nil)
	require.NoError(t, err)
	assert.Nil(t, all.OrganisationID)
	assert.Equal(t, 4, all.TotalCases)
}

func TestDashboardSummaryUsesCacheAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")
	submitCase(t, store, acme.ID)

	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewDashboardService(DashboardServiceParams{Store: store, Cache: cache})

	first, cached, err := svc.Summary(ctx, orgAdmin(acme.ID), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, first.TotalCases)

	submitCase(t, store, acme.ID)
	again, cached, err := svc.Summary(ctx, orgAdmin(acme.ID), nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, again.TotalCases)

	svc.InvalidateOrganisation(ctx, acme.ID)
	assert.ElementsMatch(t, []string{"dashboard:org:1", "dashboard:all"}, repo.deleted)

	fresh, cached, err := svc.Summary(ctx, orgAdmin(acme.ID), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, fresh.TotalCases)
}

func TestDashboardInvalidatedByIntake(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acme := seedOrganisation(t, store, "Acme")

	repo := newMemoryCacheRepo()
	dashboard := NewDashboardService(DashboardServiceParams{Store: store, Cache: NewCacheService(repo, nil, time.Minute, nil, true)})
	intake := NewIntakeService(store, nil, nil, dashboard, nil, IntakeConfig{})

	_, _, err := dashboard.Summary(ctx, orgAdmin(acme.ID), nil)
	require.NoError(t, err)
	_, err = intake.Submit(ctx, joLeeRequest(acme.ID))
	require.NoError(t, err)

	summary, cached, err := dashboard.Summary(ctx, orgAdmin(acme.ID), nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, summary.TotalCases)
}
