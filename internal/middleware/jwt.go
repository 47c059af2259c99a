package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/logger"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// SetClaims stores verified claims on the context.
func SetClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(logger.UserIDKey, claims.UserID)
	c.Set(logger.OrganisationIDKey, claims.OrganisationID)
}

// Claims returns the verified claims stored by JWT.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
