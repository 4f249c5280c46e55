package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jack-Libra/coffeenote/internal/api/http/handlers"
	"github.com/Jack-Libra/coffeenote/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Me             *handlers.MeHandler
	Docs           *handlers.DocsHandler
	AuthMiddleware *auth.IdentityMiddleware
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. The identity middleware runs for every
// route and skips allow-listed paths itself; protected groups add
// auth.RequireIdentity.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Health)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/validate", cfg.Auth.Validate)
	authGroup.Post("/logout", cfg.Auth.Logout)

	if cfg.Docs != nil {
		app.Get("/v3/api-docs", cfg.Docs.OpenAPI)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	protected := api.Group("", auth.RequireIdentity())
	protected.Get("/me", cfg.Me.Get)
}
