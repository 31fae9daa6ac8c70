package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthDeps groups dependencies required by the health handler.
type HealthDeps struct {
	Logger *zap.Logger
	Checks map[string]Check
}

// HealthHandler reports liveness of the service and its backing stores.
type HealthHandler struct {
	logger *zap.Logger
	checks map[string]Check
}

// NewHealthHandler creates a health handler with the provided dependencies.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{logger: logger, checks: deps.Checks}
}

// Register wires health and docs routes onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/api/docs", Docs)
}

// Health runs every check and answers 503 when any of them fails.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	status := fiber.StatusOK
	results := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"service": "shorturl",
		"status":  overall,
		"checks":  results,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
