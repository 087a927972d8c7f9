package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixwell/maintenance-service/internal/api/http/handlers"
	"github.com/fixwell/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tickets      *handlers.TicketsHandler
	AdminTickets *handlers.AdminTicketsHandler
	Sessions     *auth.SessionMiddleware

	LoginLimit    fiber.Handler
	RegisterLimit fiber.Handler
	TicketLimit   fiber.Handler

	UploadsDir          string
	UploadsPublicPrefix string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Stored attachments are exposed read-only.
	app.Static(cfg.UploadsPublicPrefix, cfg.UploadsDir)

	api := app.Group("/api", cfg.Sessions.Attach)

	api.Post("/register", cfg.RegisterLimit, cfg.Auth.Register)
	api.Post("/login", cfg.LoginLimit, cfg.Auth.Login)
	api.Post("/admin/login", cfg.LoginLimit, cfg.Auth.AdminLogin)
	api.Post("/logout", cfg.Auth.Logout)
	api.Get("/auth/check", cfg.Auth.Check)

	api.Post("/tickets", cfg.TicketLimit, auth.RequireUser(), cfg.Tickets.Create)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.AdminTickets.List)
	admin.Patch("/tickets/:id/status", cfg.AdminTickets.UpdateStatus)
}
