// Package router defines how HTTP routes are registered for the API. All
// endpoints live under the /api prefix; the auth group additionally runs
// the rate limiter, everything else runs the full identity chain.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/handler"
	"github.com/rentora/property-portal/internal/middleware"
	"github.com/rentora/property-portal/internal/model"
)

// Handlers collects every handler the routes need.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Properties  *handler.PropertyHandler
	Units       *handler.UnitHandler
	Maintenance *handler.MaintenanceHandler
	Dashboard   *handler.DashboardHandler
}

// Register mounts the whole API surface. rateLimiter applies to the auth
// group only; pass nil to skip it.
func Register(e *echo.Echo, svc *auth.Service, h Handlers, rateLimiter echo.MiddlewareFunc) {
	e.GET("/api/health", handler.Health)

	authGroup := e.Group("/api/auth")
	if rateLimiter != nil {
		authGroup.Use(rateLimiter)
	}
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
	authGroup.POST("/reset-password", h.Auth.ResetPassword)

	// Everything below requires a resolved identity on an active account.
	api := e.Group("/api", middleware.Authenticate(svc), middleware.RequireActive())

	users := api.Group("/users")
	users.GET("/me", h.Users.Me)
	users.PUT("/me", h.Users.UpdateMe)
	users.GET("", h.Users.List, middleware.RequireRole(svc, model.RoleAdmin))
	users.POST("/profile-setup", h.Users.ProfileSetup)
	users.GET("/profile", h.Users.Profile)
	users.POST("/switch-role", h.Users.SwitchRole)
	users.POST("/verification-documents", h.Users.UploadVerificationDocument)
	users.POST("/:id/roles", h.Users.GrantRole, middleware.RequireRole(svc, model.RoleAdmin))
	users.DELETE("/:id/roles/:role", h.Users.RevokeRole, middleware.RequireRole(svc, model.RoleAdmin))

	ownerOrAdmin := middleware.RequireRole(svc, model.RoleOwner, model.RoleAdmin)

	properties := api.Group("/properties")
	properties.POST("", h.Properties.Create, ownerOrAdmin)
	properties.GET("", h.Properties.List)
	properties.GET("/:id", h.Properties.Get)
	properties.PATCH("/:id", h.Properties.Update, ownerOrAdmin)
	properties.DELETE("/:id", h.Properties.Delete, ownerOrAdmin)
	properties.POST("/:id/images", h.Properties.UploadImages, ownerOrAdmin)

	properties.POST("/:id/units", h.Units.Create, ownerOrAdmin)
	properties.GET("/:id/units", h.Units.ListByProperty)

	units := api.Group("/units")
	units.GET("/:id", h.Units.Get)
	units.PATCH("/:id", h.Units.Update, ownerOrAdmin)
	units.DELETE("/:id", h.Units.Delete, ownerOrAdmin)
	units.POST("/:id/images", h.Units.UploadImages, ownerOrAdmin)

	maintenance := api.Group("/maintenance")
	maintenance.POST("", h.Maintenance.Create,
		middleware.RequireRole(svc, model.RoleTenant, model.RoleOwner, model.RoleAdmin))
	maintenance.GET("", h.Maintenance.List)
	maintenance.GET("/:id", h.Maintenance.Get)
	maintenance.PATCH("/:id", h.Maintenance.Update)
	maintenance.POST("/:id/comments", h.Maintenance.AddComment)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", h.Dashboard.Summary)
	dashboard.GET("/notifications", h.Dashboard.NotificationFeed)
	dashboard.POST("/notifications/:id/read", h.Dashboard.MarkNotificationRead)
}
