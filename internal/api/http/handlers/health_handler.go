package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Dependency is a backing service reported by the health endpoint.
type Dependency interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]Dependency
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, dependencies map[string]Dependency) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, dependencies: dependencies}
}

// Health handles GET /api/health. The service is reported UP while it can
// serve requests; a configured dependency that fails its ping degrades it.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "UP"
	depStatus := fiber.Map{}
	for name, dep := range h.dependencies {
		if dep == nil || !dep.Enabled() {
			depStatus[name] = fiber.Map{"status": "DISABLED"}
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = fiber.Map{"status": "DOWN", "error": err.Error()}
			status = "DEGRADED"
			continue
		}
		depStatus[name] = fiber.Map{"status": "UP"}
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"service":      h.serviceName,
		"version":      h.version,
		"timestamp":    time.Now().UnixMilli(),
		"dependencies": depStatus,
	})
}
