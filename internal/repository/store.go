package repository

import (
	"context"
	"time"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// CaseStore persists cases and their append-only history. Absent rows are
// reported as sql.ErrNoRows.
type CaseStore interface {
	// CreateCase assigns the next id and fills zero-valued lifecycle fields
	// with Submitted defaults.
	CreateCase(ctx context.Context, c *models.Case) error
	GetCase(ctx context.Context, id int64) (*models.Case, error)
	ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	UpdateCase(ctx context.Context, c *models.Case) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, caseID int64) ([]models.HistoryEntry, error)
}

// ReferenceStore holds statuses, industries, organisations and users.
type ReferenceStore interface {
	ListStatuses(ctx context.Context) ([]models.Status, error)
	GetStatus(ctx context.Context, id int64) (*models.Status, error)

	ListIndustries(ctx context.Context) ([]models.Industry, error)
	GetIndustry(ctx context.Context, id int64) (*models.Industry, error)

	CreateOrganisation(ctx context.Context, org *models.Organisation) error
	UpdateOrganisation(ctx context.Context, org *models.Organisation) error
	GetOrganisation(ctx context.Context, id int64) (*models.Organisation, error)
	ListOrganisations(ctx context.Context) ([]models.Organisation, error)

	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

// Store is the full persistence contract used by the services.
type Store interface {
	CaseStore
	ReferenceStore
	// WithTx runs fn against a transactional view of the store. Everything fn
	// writes commits together, or nothing does when fn returns an error.
	WithTx(ctx context.Context, fn func(Store) error) error
}

const maxPageSize = 100

// pageBounds converts page/pageSize into offset/limit. A non-positive page
// size means no limit.
func pageBounds(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}
