package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

// CaseService serves read access to cases.
type CaseService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewCaseService constructs the case query service.
func NewCaseService(store repository.Store, logger *zap.Logger) *CaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{store: store, logger: logger, now: time.Now}
}

// List returns the cases visible to actor that match q.
func (s *CaseService) List(ctx context.Context, q dto.CaseQuery, actor models.Actor) ([]dto.CaseView, *models.Pagination, error) {
	filter, err := caseFilter(q, actor)
	if err != nil {
		return nil, nil, err
	}

	cases, total, err := s.store.ListCases(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list cases")
	}

	names, err := loadNames(ctx, s.store, filter.OrganisationID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	views := make([]dto.CaseView, 0, len(cases))
	for _, c := range cases {
		views = append(views, names.view(c, now))
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return views, pagination, nil
}

// Get returns a case with its history.
func (s *CaseService) Get(ctx context.Context, id int64, actor models.Actor) (*dto.CaseDetail, error) {
	c, err := loadCaseForActor(ctx, s.store, id, actor)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, c.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load case history")
	}
	orgID := c.OrganisationID
	names, err := loadNames(ctx, s.store, &orgID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return &dto.CaseDetail{CaseView: names.view(*c, s.now()), History: history}, nil
}

// History returns the ordered history of a case.
func (s *CaseService) History(ctx context.Context, id int64, actor models.Actor) ([]models.HistoryEntry, error) {
	c, err := loadCaseForActor(ctx, s.store, id, actor)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, c.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load case history")
	}
	return history, nil
}

func caseFilter(q dto.CaseQuery, actor models.Actor) (models.CaseFilter, error) {
	filter := models.CaseFilter{
		StatusID:   q.StatusID,
		AssignedTo: q.AssignedTo,
		OpenOnly:   q.OpenOnly,
		Search:     strings.TrimSpace(q.Search),
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if kind := strings.ToUpper(strings.TrimSpace(q.Kind)); kind != "" {
		filter.Kind = models.CaseKind(kind)
		if !filter.Kind.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown case kind %q", q.Kind))
		}
	}

	if actor.IsSystemAdmin() {
		filter.OrganisationID = q.OrganisationID
	} else {
		orgID := actor.OrganisationID
		filter.OrganisationID = &orgID
	}
	return filter, nil
}

// caseNames resolves display names for status and assignee ids.
type caseNames struct {
	statuses map[int64]models.Status
	users    map[int64]string
}

func loadNames(ctx context.Context, store repository.ReferenceStore, orgID *int64) (*caseNames, error) {
	statuses, err := store.ListStatuses(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load statuses")
	}
	users, _, err := store.ListUsers(ctx, models.UserFilter{OrganisationID: orgID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load users")
	}

	names := &caseNames{
		statuses: make(map[int64]models.Status, len(statuses)),
		users:    make(map[int64]string, len(users)),
	}
	for _, st := range statuses {
		names.statuses[st.ID] = st
	}
	for _, u := range users {
		names.users[u.ID] = u.FullName()
	}
	return names, nil
}

func (n *caseNames) statusName(id int64) string {
	if st, ok := n.statuses[id]; ok {
		return st.Name
	}
	return unknownStatusName(id)
}

func unknownStatusName(id int64) string {
	return fmt.Sprintf("Status #%d", id)
}

func (n *caseNames) userName(id int64) string {
	if id == 0 {
		return UnassignedName
	}
	if name, ok := n.users[id]; ok {
		return name
	}
	return fmt.Sprintf("User #%d", id)
}

func (n *caseNames) view(c models.Case, now time.Time) dto.CaseView {
	return dto.CaseView{
		Case:           c,
		StatusName:     n.statusName(c.StatusID),
		AssignedToName: n.userName(c.AssignedTo),
		Overdue:        c.IsOverdue(now),
	}
}
