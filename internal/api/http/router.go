package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personalisation-service/internal/api/http/handlers"
	"github.com/spec-kit/personalisation-service/internal/auth"
	"github.com/spec-kit/personalisation-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Preferences    *handlers.PreferencesHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/header", cfg.Preferences.Header)

	prefs := app.Group("/preferences")
	prefs.Get("", cfg.Preferences.Get)
	prefs.Post("/consent", cfg.Preferences.Consent)
	prefs.Post("/persona", cfg.Preferences.Persona)
	prefs.Post("/clear", cfg.Preferences.Clear)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireSubject(domain.SubjectTypeAuditor))
	admin.Get("/consent-records", cfg.Audit.ListRecords)
}
