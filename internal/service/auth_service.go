package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

type authUserRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a staff member and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	issuedAt := s.now().UTC()
	accessToken, err := s.generateAccessToken(user, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.Int64("organisation_id", user.OrganisationID),
		zap.String("ip", req.IP),
	)

	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        userInfo(user),
	}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.UserInfo, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		Role:           user.Role,
		Email:          user.Email,
		FullName:       user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:             user.ID,
		OrganisationID: user.OrganisationID,
		Email:          user.Email,
		FullName:       user.FullName(),
		Role:           user.Role,
	}
}
