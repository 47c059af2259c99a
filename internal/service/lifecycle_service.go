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
)

// UnassignedName is the assignee label recorded while a case awaits triage
// by the organisation administrator.
const UnassignedName = "Organisation Admin"

type lifecycleMetrics interface {
	RecordTransition(statusName string)
	RecordAssignment()
}

type dashboardInvalidator interface {
	InvalidateOrganisation(ctx context.Context, organisationID int64)
}

// LifecycleConfig toggles optional lifecycle rules. LockClosed makes Closed
// final for both status changes and assignment.
type LifecycleConfig struct {
	RequireClosureComment bool
	RecomputeDueDate      bool
	LockClosed            bool
}

// LifecycleService applies status transitions and assignments. Each call
// updates the case and appends exactly one history entry in one transaction.
type LifecycleService struct {
	store       repository.Store
	validator   *validator.Validate
	metrics     lifecycleMetrics
	invalidator dashboardInvalidator
	logger      *zap.Logger
	now         func() time.Time
	cfg         LifecycleConfig
}

// NewLifecycleService constructs the lifecycle engine.
func NewLifecycleService(store repository.Store, validate *validator.Validate, metrics lifecycleMetrics, invalidator dashboardInvalidator, logger *zap.Logger, cfg LifecycleConfig) *LifecycleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		store:       store,
		validator:   validate,
		metrics:     metrics,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// ChangeStatus moves a case to req.StatusID on behalf of actor.
func (s *LifecycleService) ChangeStatus(ctx context.Context, caseID int64, req dto.ChangeStatusRequest, actor models.Actor) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status change payload")
	}
	comment := strings.TrimSpace(req.Comment)

	var (
		updated models.Case
		status  models.Status
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := loadCaseForActor(ctx, tx, caseID, actor)
		if err != nil {
			return err
		}

		target, err := tx.GetStatus(ctx, req.StatusID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("status %d does not exist", req.StatusID))
			}
			return appErrors.Internal(err, "failed to load status")
		}
		if !target.IsActive {
			return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("status %s is inactive", target.Name))
		}
		if c.IsClosed() && s.cfg.LockClosed {
			return appErrors.Clone(appErrors.ErrCaseClosed, fmt.Sprintf("case %d is closed", c.ID))
		}

		now := s.now().UTC()
		if target.IsTerminal {
			if s.cfg.RequireClosureComment && comment == "" {
				return appErrors.Clone(appErrors.ErrValidation, "a closure comment is required")
			}
			c.ClosedAt = &now
			c.ClosureComment = comment
			c.CompletedOnTime = !now.After(c.DueDate)
		} else {
			if c.IsClosed() {
				c.ClosedAt = nil
				c.ClosureComment = ""
				c.CompletedOnTime = false
			}
			if s.cfg.RecomputeDueDate {
				c.DueDate = target.DueFrom(now)
			}
		}
		c.StatusID = target.ID

		if err := tx.UpdateCase(ctx, c); err != nil {
			return appErrors.Internal(err, "failed to update case")
		}

		if comment == "" {
			comment = "Status changed to " + target.Name
		}
		entry := &models.HistoryEntry{
			CaseID:         c.ID,
			OrganisationID: c.OrganisationID,
			StatusID:       target.ID,
			StatusName:     target.Name,
			AssignedTo:     c.AssignedTo,
			AssignedToName: assigneeName(ctx, tx, c.AssignedTo),
			UpdatedBy:      actor.UserID,
			UpdatedByName:  actor.Name,
			Comment:        comment,
			UpdatedAt:      now,
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return appErrors.Internal(err, "failed to record case history")
		}

		updated, status = *c, *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(status.Name)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateOrganisation(ctx, updated.OrganisationID)
	}
	s.logger.Info("case status changed",
		zap.Int64("case_id", updated.ID),
		zap.Int64("organisation_id", updated.OrganisationID),
		zap.String("status", status.Name),
		zap.Int64("actor_id", actor.UserID),
	)
	return &updated, nil
}

// Assign hands a case to a staff member of the same organisation.
func (s *LifecycleService) Assign(ctx context.Context, caseID int64, req dto.AssignCaseRequest, actor models.Actor) (*models.Case, error) {
	if !actor.CanManage() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can assign cases")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}

	var updated models.Case
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := loadCaseForActor(ctx, tx, caseID, actor)
		if err != nil {
			return err
		}
		if c.IsClosed() && s.cfg.LockClosed {
			return appErrors.Clone(appErrors.ErrCaseClosed, fmt.Sprintf("case %d is closed", c.ID))
		}

		assignee, err := tx.GetUser(ctx, req.AssigneeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "assignee does not exist")
			}
			return appErrors.Internal(err, "failed to load assignee")
		}
		if !assignee.IsActive || assignee.OrganisationID != c.OrganisationID {
			return appErrors.Clone(appErrors.ErrValidation, "assignee must be an active member of the case organisation")
		}

		status, err := tx.GetStatus(ctx, c.StatusID)
		if err != nil {
			return appErrors.Internal(err, "failed to load current status")
		}

		c.AssignedTo = assignee.ID
		if err := tx.UpdateCase(ctx, c); err != nil {
			return appErrors.Internal(err, "failed to update case")
		}

		comment := strings.TrimSpace(req.Comment)
		if comment == "" {
			comment = "Assigned to " + assignee.FullName()
		}
		entry := &models.HistoryEntry{
			CaseID:         c.ID,
			OrganisationID: c.OrganisationID,
			StatusID:       status.ID,
			StatusName:     status.Name,
			AssignedTo:     assignee.ID,
			AssignedToName: assignee.FullName(),
			UpdatedBy:      actor.UserID,
			UpdatedByName:  actor.Name,
			Comment:        comment,
			UpdatedAt:      s.now().UTC(),
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return appErrors.Internal(err, "failed to record case history")
		}
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAssignment()
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateOrganisation(ctx, updated.OrganisationID)
	}
	s.logger.Info("case assigned",
		zap.Int64("case_id", updated.ID),
		zap.Int64("assignee_id", updated.AssignedTo),
		zap.Int64("actor_id", actor.UserID),
	)
	return &updated, nil
}

// loadCaseForActor hides cases of other organisations behind NOT_FOUND.
func loadCaseForActor(ctx context.Context, store repository.CaseStore, caseID int64, actor models.Actor) (*models.Case, error) {
	c, err := store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("case %d not found", caseID))
		}
		return nil, appErrors.Internal(err, "failed to load case")
	}
	if !actor.CanAccessOrganisation(c.OrganisationID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("case %d not found", caseID))
	}
	return c, nil
}

func assigneeName(ctx context.Context, store repository.ReferenceStore, userID int64) string {
	if userID == 0 {
		return UnassignedName
	}
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Sprintf("User #%d", userID)
	}
	return user.FullName()
}
