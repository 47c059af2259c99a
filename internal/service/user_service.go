package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahulvs07/complyark-data-shield/internal/dto"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type userRepository interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetOrganisation(ctx context.Context, id int64) (*models.Organisation, error)
}

// UserService handles staff administration.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users visible to actor.
func (s *UserService) List(ctx context.Context, q dto.UserQuery, actor models.Actor) ([]models.User, *models.Pagination, error) {
	if !actor.CanManage() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can list users")
	}

	filter := models.UserFilter{
		OrganisationID: q.OrganisationID,
		Search:         strings.TrimSpace(q.Search),
		Page:           q.Page,
		PageSize:       q.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if role := models.UserRole(strings.ToUpper(strings.TrimSpace(q.Role))); role != "" {
		if !role.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", q.Role))
		}
		filter.Role = &role
	}
	if !actor.IsSystemAdmin() {
		orgID := actor.OrganisationID
		filter.OrganisationID = &orgID
	}

	users, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64, actor models.Actor) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if user.ID != actor.UserID && !(actor.CanManage() && actor.CanAccessOrganisation(user.OrganisationID)) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// Create adds a staff member. Organisation administrators can only add
// non-system users to their own organisation.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor models.Actor) (*models.User, error) {
	if !actor.CanManage() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can create users")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	if !actor.IsSystemAdmin() {
		if req.Role == models.RoleSystemAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "organisation administrators cannot create system administrators")
		}
		req.OrganisationID = actor.OrganisationID
	}
	if req.Role == models.RoleSystemAdmin {
		req.OrganisationID = 0
	} else if err := s.requireOrganisation(ctx, req.OrganisationID); err != nil {
		return nil, err
	}

	user := &models.User{
		OrganisationID: req.OrganisationID,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		IsActive:       true,
	}
	if err := s.create(ctx, user, req.Password); err != nil {
		return nil, err
	}
	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.Int64("organisation_id", user.OrganisationID),
		zap.String("role", string(user.Role)),
		zap.Int64("actor_id", actor.UserID),
	)
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id int64, req dto.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	if !actor.CanManage() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can update users")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update payload")
	}

	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Role != nil {
		if *req.Role == models.RoleSystemAdmin && !actor.IsSystemAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "organisation administrators cannot grant system administration")
		}
		if (*req.Role == models.RoleSystemAdmin) != (user.Role == models.RoleSystemAdmin) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "system administrators cannot change tenant")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if user.ID == actor.UserID && !*req.IsActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "you cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if user.FirstName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: firstName")
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}
	s.logger.Info("user updated", zap.Int64("user_id", user.ID), zap.Int64("actor_id", actor.UserID))
	return user, nil
}

// EnsureBootstrapAdmin creates the first system administrator when email and
// password are configured and no account uses that email yet.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to look up bootstrap admin")
	}

	user := &models.User{
		Email:     email,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      models.RoleSystemAdmin,
		IsActive:  true,
	}
	if err := s.create(ctx, user, password); err != nil {
		return err
	}
	s.logger.Info("bootstrap system administrator created", zap.String("email", email))
	return nil
}

func (s *UserService) create(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return appErrors.Internal(err, "failed to create user")
	}
	return nil
}

func (s *UserService) requireOrganisation(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "organisationId is required for organisation users")
	}
	if _, err := s.repo.GetOrganisation(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("organisation %d does not exist", id))
		}
		return appErrors.Internal(err, "failed to load organisation")
	}
	return nil
}
