package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/tenant"
)

const intakeComment = "Request created by data principal"

type intakeMetrics interface {
	RecordCaseCreated(kind models.CaseKind)
}

// IntakeConfig holds intake defaults.
type IntakeConfig struct {
	// DefaultSLADays applies when the Submitted status carries no SLA.
	DefaultSLADays int
}

// IntakeService turns public submissions into cases.
type IntakeService struct {
	store       repository.Store
	validator   *validator.Validate
	metrics     intakeMetrics
	invalidator dashboardInvalidator
	logger      *zap.Logger
	now         func() time.Time
	cfg         IntakeConfig
}

// NewIntakeService constructs the intake service.
func NewIntakeService(store repository.Store, validate *validator.Validate, metrics intakeMetrics, invalidator dashboardInvalidator, logger *zap.Logger, cfg IntakeConfig) *IntakeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultSLADays <= 0 {
		cfg.DefaultSLADays = 7
	}
	return &IntakeService{
		store:       store,
		validator:   validate,
		metrics:     metrics,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// ResolveOrganisation maps an intake token to an active organisation.
func (s *IntakeService) ResolveOrganisation(ctx context.Context, token string) (*models.Organisation, error) {
	orgID, err := tenant.Decode(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTenantToken.Code, appErrors.ErrInvalidTenantToken.Status, appErrors.ErrInvalidTenantToken.Message)
	}
	return s.organisation(ctx, s.store, orgID)
}

// SubmitWithToken resolves the intake token and submits req for that organisation.
func (s *IntakeService) SubmitWithToken(ctx context.Context, token string, req dto.SubmitCaseRequest) (*models.Case, error) {
	org, err := s.ResolveOrganisation(ctx, token)
	if err != nil {
		return nil, err
	}
	req.OrganisationID = org.ID
	return s.Submit(ctx, req)
}

// StatusName returns the catalogue label of statusID.
func (s *IntakeService) StatusName(ctx context.Context, statusID int64) string {
	st, err := s.store.GetStatus(ctx, statusID)
	if err != nil {
		s.logger.Warn("failed to resolve status name", zap.Int64("status_id", statusID), zap.Error(err))
		return unknownStatusName(statusID)
	}
	return st.Name
}

// Submit validates req and stores a new case with its initial history entry.
func (s *IntakeService) Submit(ctx context.Context, req dto.SubmitCaseRequest) (*models.Case, error) {
	req = normaliseSubmission(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid submission")
	}
	switch req.Kind {
	case models.CaseKindDataRequest:
		if !req.RequestType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "requestType must be one of Access, Correction, Nomination, Erasure")
		}
	case models.CaseKindGrievance:
		req.RequestType = ""
	}
	if !strings.Contains(req.Email, "@") {
		return nil, appErrors.Clone(appErrors.ErrInvalidEmail, fmt.Sprintf("%q is not a valid email address", req.Email))
	}

	var created models.Case
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		org, err := s.organisation(ctx, tx, req.OrganisationID)
		if err != nil {
			return err
		}
		submitted, err := tx.GetStatus(ctx, models.StatusSubmitted)
		if err != nil {
			return appErrors.Internal(err, "failed to load submitted status")
		}

		now := s.now().UTC()
		due := submitted.DueFrom(now)
		if submitted.SLADays <= 0 {
			due = now.AddDate(0, 0, s.cfg.DefaultSLADays)
		}
		c := &models.Case{
			Kind:           req.Kind,
			RequestType:    req.RequestType,
			OrganisationID: org.ID,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			Comment:        req.Comment,
			StatusID:       submitted.ID,
			DueDate:        due,
			CreatedAt:      now,
		}
		if err := tx.CreateCase(ctx, c); err != nil {
			return appErrors.Internal(err, "failed to store case")
		}

		entry := &models.HistoryEntry{
			CaseID:         c.ID,
			OrganisationID: c.OrganisationID,
			StatusID:       submitted.ID,
			StatusName:     submitted.Name,
			AssignedToName: UnassignedName,
			UpdatedByName:  c.FullName() + " (Requester)",
			Comment:        intakeComment,
			UpdatedAt:      now,
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return appErrors.Internal(err, "failed to record case history")
		}
		created = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCaseCreated(created.Kind)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateOrganisation(ctx, created.OrganisationID)
	}
	s.logger.Info("case submitted",
		zap.Int64("case_id", created.ID),
		zap.Int64("organisation_id", created.OrganisationID),
		zap.String("kind", string(created.Kind)),
	)
	return &created, nil
}

func (s *IntakeService) organisation(ctx context.Context, store repository.ReferenceStore, id int64) (*models.Organisation, error) {
	org, err := store.GetOrganisation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownOrganisation, fmt.Sprintf("organisation %d not found", id))
		}
		return nil, appErrors.Internal(err, "failed to load organisation")
	}
	if !org.IsActive {
		return nil, appErrors.Clone(appErrors.ErrUnknownOrganisation, fmt.Sprintf("organisation %d not found", id))
	}
	return org, nil
}

func normaliseSubmission(req dto.SubmitCaseRequest) dto.SubmitCaseRequest {
	req.Kind = models.CaseKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.RequestType = models.RequestType(strings.TrimSpace(string(req.RequestType)))
	req.Comment = strings.TrimSpace(req.Comment)
	return req
}
