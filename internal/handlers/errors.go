package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
)

// respondError maps triage errors onto HTTP statuses. Details of internal
// failures are logged, not returned.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, triage.ErrValidation):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, triage.ErrUnauthenticated):
		status, message = fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, triage.ErrUnauthorized):
		status, message = fiber.StatusForbidden, "Admin access required"
	case errors.Is(err, triage.ErrNotFound):
		status, message = fiber.StatusNotFound, "Report not found"
	default:
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err,
		)
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}
