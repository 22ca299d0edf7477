package handlers

import (
	"fuelpass/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// Health reports liveness plus database and cache connectivity. Used by the
// load balancer; no auth.
func Health(c *fiber.Ctx) error {
	status := fiber.StatusOK
	checks := fiber.Map{
		"database": "ok",
		"cache":    "ok",
	}

	if repositories.DB == nil {
		checks["database"] = "not initialized"
		status = fiber.StatusServiceUnavailable
	} else if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		checks["database"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	if repositories.CacheService == nil {
		checks["cache"] = "not initialized"
		status = fiber.StatusServiceUnavailable
	} else if err := repositories.CacheService.HealthCheck(c.Context()); err != nil {
		checks["cache"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
	})
}
