package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/internal/middleware"
	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// Handlers groups every HTTP handler mounted by the API.
type Handlers struct {
	Auth          *AuthHandler
	Cases         *CaseHandler
	Intake        *IntakeHandler
	Dashboard     *DashboardHandler
	Organisations *OrganisationHandler
	Users         *UserHandler
	Catalog       *CatalogHandler
	Exports       *ExportHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API under prefix. Public intake and export
// download routes are unauthenticated; everything else requires a token.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, tokens middleware.TokenValidator, logger *zap.Logger) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/public/intake/:token", h.Intake.Organisation)
	api.POST("/public/intake/:token/cases", h.Intake.Submit)
	api.GET("/public/export/:token", h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/statuses", h.Catalog.Statuses)
	secured.GET("/industries", h.Catalog.Industries)
	secured.GET("/dashboard", h.Dashboard.Summary)

	cases := secured.Group("/cases")
	cases.Use(middleware.Audit(logger, "case"))
	cases.GET("", h.Cases.List)
	cases.GET("/:id", h.Cases.Get)
	cases.GET("/:id/history", h.Cases.History)
	cases.POST("/:id/status", h.Cases.ChangeStatus)
	cases.POST("/:id/assign", middleware.RequireAdmin(), h.Cases.Assign)

	orgs := secured.Group("/organisations")
	orgs.Use(middleware.Audit(logger, "organisation"))
	orgs.GET("", h.Organisations.List)
	orgs.GET("/:id", h.Organisations.Get)
	orgs.POST("", middleware.RequireRoles(models.RoleSystemAdmin), h.Organisations.Create)
	orgs.PUT("/:id", middleware.RequireAdmin(), h.Organisations.Update)
	orgs.GET("/:id/intake-link", middleware.RequireAdmin(), h.Organisations.IntakeLink)

	users := secured.Group("/users")
	users.Use(middleware.RequireAdmin(), middleware.Audit(logger, "user"))
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)

	exports := secured.Group("/exports")
	exports.Use(middleware.RequireAdmin(), middleware.Audit(logger, "export"))
	exports.POST("", h.Exports.Create)
	exports.GET("/:id", h.Exports.Get)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleSystemAdmin))
	admin.GET("/metrics", h.Metrics.Snapshot)
}
