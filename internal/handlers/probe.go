package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	db    Pinger
	redis *redis.Client
}

// NewProbeHandler creates a new probe handler. client may be nil when Redis
// is not configured.
func NewProbeHandler(database Pinger, client *redis.Client) *ProbeHandler {
	return &ProbeHandler{db: database, redis: client}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Returns 200 OK if the database and, when configured, Redis are reachable.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"error":  "database unavailable",
		})
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Context()).Err(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "error",
				"error":  "redis unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
