package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const localAdminToken = "admin_token"

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// Caller builds the triage identity for the request, or nil when the
// request carries neither a usable JWT nor the admin token.
func Caller(c *fiber.Ctx) *triage.Caller {
	if ok, _ := c.Locals(localAdminToken).(bool); ok {
		return &triage.Caller{Admin: true}
	}
	userID, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &triage.Caller{UserID: userID}
}
