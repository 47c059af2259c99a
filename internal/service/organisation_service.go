package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/tenant"
)

type organisationRepository interface {
	CreateOrganisation(ctx context.Context, org *models.Organisation) error
	UpdateOrganisation(ctx context.Context, org *models.Organisation) error
	GetOrganisation(ctx context.Context, id int64) (*models.Organisation, error)
	ListOrganisations(ctx context.Context) ([]models.Organisation, error)
	GetIndustry(ctx context.Context, id int64) (*models.Industry, error)
}

// OrganisationService administers tenants and their intake links.
type OrganisationService struct {
	repo          organisationRepository
	validator     *validator.Validate
	logger        *zap.Logger
	intakeBaseURL string
}

// NewOrganisationService constructs an OrganisationService.
func NewOrganisationService(repo organisationRepository, validate *validator.Validate, logger *zap.Logger, intakeBaseURL string) *OrganisationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &OrganisationService{repo: repo, validator: validate, logger: logger, intakeBaseURL: intakeBaseURL}
}

// List returns every organisation for system administrators and the
// actor's own organisation for everyone else.
func (s *OrganisationService) List(ctx context.Context, actor models.Actor) ([]models.Organisation, error) {
	if !actor.IsSystemAdmin() {
		org, err := s.Get(ctx, actor.OrganisationID, actor)
		if err != nil {
			return nil, err
		}
		return []models.Organisation{*org}, nil
	}
	orgs, err := s.repo.ListOrganisations(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list organisations")
	}
	if orgs == nil {
		orgs = []models.Organisation{}
	}
	return orgs, nil
}

// Get returns an organisation the actor may see.
func (s *OrganisationService) Get(ctx context.Context, id int64, actor models.Actor) (*models.Organisation, error) {
	if !actor.CanAccessOrganisation(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "organisation not found")
	}
	org, err := s.repo.GetOrganisation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organisation not found")
		}
		return nil, appErrors.Internal(err, "failed to load organisation")
	}
	return org, nil
}

// Create registers a new organisation.
func (s *OrganisationService) Create(ctx context.Context, req dto.CreateOrganisationRequest, actor models.Actor) (*models.Organisation, error) {
	if !actor.IsSystemAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only system administrators can create organisations")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid organisation payload")
	}
	if err := s.requireIndustry(ctx, req.IndustryID); err != nil {
		return nil, err
	}

	org := &models.Organisation{
		Name:         req.Name,
		IndustryID:   req.IndustryID,
		ContactEmail: req.ContactEmail,
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Address:      strings.TrimSpace(req.Address),
		IsActive:     true,
	}
	if err := s.repo.CreateOrganisation(ctx, org); err != nil {
		return nil, appErrors.Internal(err, "failed to create organisation")
	}
	s.logger.Info("organisation created", zap.Int64("organisation_id", org.ID), zap.String("name", org.Name))
	return org, nil
}

// Update patches an organisation.
func (s *OrganisationService) Update(ctx context.Context, id int64, req dto.UpdateOrganisationRequest, actor models.Actor) (*models.Organisation, error) {
	if !actor.IsSystemAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only system administrators can update organisations")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid organisation payload")
	}
	org, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: name")
		}
		org.Name = name
	}
	if req.IndustryID != nil {
		if err := s.requireIndustry(ctx, *req.IndustryID); err != nil {
			return nil, err
		}
		org.IndustryID = *req.IndustryID
	}
	if req.ContactEmail != nil {
		org.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if req.ContactPhone != nil {
		org.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.Address != nil {
		org.Address = strings.TrimSpace(*req.Address)
	}
	if req.IsActive != nil {
		org.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateOrganisation(ctx, org); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organisation not found")
		}
		return nil, appErrors.Internal(err, "failed to update organisation")
	}
	s.logger.Info("organisation updated", zap.Int64("organisation_id", org.ID))
	return org, nil
}

// IntakeLink returns the public intake URL of an organisation.
func (s *OrganisationService) IntakeLink(ctx context.Context, id int64, actor models.Actor) (*dto.IntakeLinkResponse, error) {
	if !actor.CanManage() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can share intake links")
	}
	org, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	link, err := tenant.Link(s.intakeBaseURL, org.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to build intake link")
	}
	return &dto.IntakeLinkResponse{OrganisationID: org.ID, Token: tenant.Encode(org.ID), URL: link}, nil
}

func (s *OrganisationService) requireIndustry(ctx context.Context, id int64) error {
	if _, err := s.repo.GetIndustry(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("industry %d does not exist", id))
		}
		return appErrors.Internal(err, "failed to load industry")
	}
	return nil
}
