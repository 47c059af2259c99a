package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

func runRBAC(claims *models.JWTClaims, guard gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			SetClaims(c, claims)
		}
		c.Next()
	})
	router.GET("/guarded", guard, func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	return w.Code
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		guard  gin.HandlerFunc
		want   int
	}{
		{"no claims", nil, RequireAdmin(), http.StatusUnauthorized},
		{"user denied admin route", &models.JWTClaims{UserID: 2, Role: models.RoleUser}, RequireAdmin(), http.StatusForbidden},
		{"org admin allowed", &models.JWTClaims{UserID: 2, Role: models.RoleOrgAdmin}, RequireAdmin(), http.StatusOK},
		{"org admin denied sysadmin route", &models.JWTClaims{UserID: 2, Role: models.RoleOrgAdmin}, RequireRoles(models.RoleSystemAdmin), http.StatusForbidden},
		{"sysadmin allowed", &models.JWTClaims{UserID: 1, Role: models.RoleSystemAdmin}, RequireRoles(models.RoleSystemAdmin), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, runRBAC(tc.claims, tc.guard))
		})
	}
}
