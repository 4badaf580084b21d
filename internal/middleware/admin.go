package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired lets a request through when it carries the admin token or
// when the directory lists the JWT subject as an administrator (configured
// ids and emails, or a user whose role is admin). Mount it after
// Authenticated.
func AdminRequired(admins triage.AdminDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := Caller(c)
		if caller == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if caller.Admin {
			return c.Next()
		}

		ok, err := admins.IsAdmin(c.UserContext(), caller.UserID)
		if err != nil {
			slog.Error("admin lookup failed", "operator_id", caller.UserID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
