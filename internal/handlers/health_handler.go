package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping   func(ctx context.Context) error
	events string
}

// NewHealthHandler reports database reachability through ping and the
// configured event transport ("kafka" or "in-process").
func NewHealthHandler(ping func(ctx context.Context) error, events string) *HealthHandler {
	return &HealthHandler{ping: ping, events: events}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if err := h.ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Events:    h.events,
	})
}
