package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

// RequireRoles lets through only authenticated users holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin admits system and organisation administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSystemAdmin, models.RoleOrgAdmin)
}
