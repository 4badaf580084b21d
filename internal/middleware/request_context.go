package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// RequestLogContext copies the request id set by the requestid middleware
// into the user context, so service logs written with that context carry it.
// Must be registered after requestid.New().
func RequestLogContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			c.SetUserContext(logging.ContextWithAttrs(c.UserContext(), slog.String("request_id", rid)))
		}
		return c.Next()
	}
}
