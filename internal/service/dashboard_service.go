package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

const dashboardAllKey = "dashboard:all"

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL  time.Duration
	TaskLimit int
}

// DashboardService composes case summaries, caching them per organisation.
type DashboardService struct {
	store  repository.Store
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Store  repository.Store
	Cache  *CacheService
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TaskLimit <= 0 {
		cfg.TaskLimit = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		store:  params.Store,
		cache:  params.Cache,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Summary returns the dashboard for actor and indicates cache utilisation.
// System administrators see every organisation unless organisationID is set;
// everyone else sees their own organisation.
func (s *DashboardService) Summary(ctx context.Context, actor models.Actor, organisationID *int64) (*dto.DashboardSummary, bool, error) {
	scope := organisationID
	if !actor.IsSystemAdmin() {
		orgID := actor.OrganisationID
		scope = &orgID
	}

	key := dashboardKey(scope)
	var cached dto.DashboardSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// InvalidateOrganisation drops cached summaries affected by a change to a
// case of organisationID.
func (s *DashboardService) InvalidateOrganisation(ctx context.Context, organisationID int64) {
	if s == nil {
		return
	}
	s.cache.Invalidate(ctx, dashboardKey(&organisationID), dashboardAllKey)
}

func dashboardKey(organisationID *int64) string {
	if organisationID == nil {
		return dashboardAllKey
	}
	return fmt.Sprintf("dashboard:org:%d", *organisationID)
}

func (s *DashboardService) compose(ctx context.Context, organisationID *int64) (*dto.DashboardSummary, error) {
	var (
		statuses []models.Status
		cases    []models.Case
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statuses, err = s.store.ListStatuses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cases, _, err = s.store.ListCases(gctx, models.CaseFilter{OrganisationID: organisationID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to load dashboard data")
	}

	now := s.now()
	summary := &dto.DashboardSummary{
		OrganisationID: organisationID,
		GeneratedAt:    now.UTC(),
		TotalCases:     len(cases),
		ByStatus:       make([]dto.StatusCount, 0, len(statuses)),
		ByRequestType:  make([]dto.TypeCount, 0, 4),
		OpenTasks:      []dto.TaskSummary{},
		EscalatedTasks: []dto.TaskSummary{},
	}

	statusNames := make(map[int64]string, len(statuses))
	statusCounts := make(map[int64]int, len(statuses))
	typeCounts := make(map[models.RequestType]int)
	var open, escalated []dto.TaskSummary

	for _, st := range statuses {
		statusNames[st.ID] = st.Name
	}
	for _, c := range cases {
		statusCounts[c.StatusID]++
		switch c.Kind {
		case models.CaseKindDataRequest:
			summary.DataRequests++
			typeCounts[c.RequestType]++
		case models.CaseKindGrievance:
			summary.Grievances++
		}

		if c.IsClosed() {
			if c.CompletedOnTime {
				summary.ClosedOnTime++
			} else {
				summary.ClosedLate++
			}
			continue
		}

		summary.OpenCases++
		if c.AssignedTo == 0 {
			summary.UnassignedCases++
		}
		task := dto.TaskSummary{
			CaseID:     c.ID,
			Kind:       string(c.Kind),
			Requester:  c.FullName(),
			StatusName: statusNames[c.StatusID],
			AssignedTo: c.AssignedTo,
			DueDate:    c.DueDate,
			Overdue:    c.IsOverdue(now),
		}
		if task.Overdue {
			summary.OverdueCases++
		}
		open = append(open, task)
		if c.StatusID == models.StatusEscalated {
			summary.EscalatedCases++
			escalated = append(escalated, task)
		}
	}

	for _, st := range statuses {
		summary.ByStatus = append(summary.ByStatus, dto.StatusCount{StatusID: st.ID, Name: st.Name, Count: statusCounts[st.ID]})
	}
	for _, rt := range []models.RequestType{models.RequestTypeAccess, models.RequestTypeCorrection, models.RequestTypeNomination, models.RequestTypeErasure} {
		summary.ByRequestType = append(summary.ByRequestType, dto.TypeCount{RequestType: string(rt), Count: typeCounts[rt]})
	}
	summary.OpenTasks = s.earliestDue(open)
	summary.EscalatedTasks = s.earliestDue(escalated)
	return summary, nil
}

func (s *DashboardService) earliestDue(tasks []dto.TaskSummary) []dto.TaskSummary {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	if len(tasks) > s.cfg.TaskLimit {
		tasks = tasks[:s.cfg.TaskLimit]
	}
	if tasks == nil {
		return []dto.TaskSummary{}
	}
	return tasks
}
