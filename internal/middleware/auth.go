package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

const adminTokenHeader = "X-Admin-Token"

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// Authenticated accepts either the configured admin token header or a valid
// JWT. Admin token callers skip JWT verification entirely.
func Authenticated(cfg *config.Config) fiber.Handler {
	jwtCheck := JWTProtected(cfg)
	return func(c *fiber.Ctx) error {
		if validAdminToken(cfg, c.Get(adminTokenHeader)) {
			c.Locals(localAdminToken, true)
			return c.Next()
		}
		return jwtCheck(c)
	}
}

func validAdminToken(cfg *config.Config, got string) bool {
	if cfg.AdminToken == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(cfg.AdminToken)) == 1
}
