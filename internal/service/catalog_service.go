package service

import (
	"context"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type catalogRepository interface {
	ListStatuses(ctx context.Context) ([]models.Status, error)
	ListIndustries(ctx context.Context) ([]models.Industry, error)
}

// CatalogService exposes the status and industry reference lists.
type CatalogService struct {
	repo catalogRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo catalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Statuses lists the status catalogue. Inactive statuses are included.
func (s *CatalogService) Statuses(ctx context.Context) ([]models.Status, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list statuses")
	}
	return statuses, nil
}

// Industries lists the industry catalogue.
func (s *CatalogService) Industries(ctx context.Context) ([]models.Industry, error) {
	industries, err := s.repo.ListIndustries(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list industries")
	}
	return industries, nil
}
