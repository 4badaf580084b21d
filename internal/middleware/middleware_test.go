package middleware

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage/triagetest"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newAdminApp(store *triagetest.Store) *fiber.App {
	cfg := &config.Config{JWTSecret: testSecret, AdminToken: "letmein"}
	app := fiber.New()
	app.Get("/admin", Authenticated(cfg), AdminRequired(store), func(c *fiber.Ctx) error {
		caller := Caller(c)
		if caller.Admin {
			return c.SendString("token")
		}
		return c.SendString(caller.UserID.String())
	})
	return app
}

func TestAdminRequired(t *testing.T) {
	store := triagetest.NewStore()
	admin := uuid.New()
	store.AddAdmins(admin)
	app := newAdminApp(store)

	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no credentials", nil, fiber.StatusUnauthorized},
		{"bad token", map[string]string{"Authorization": "Bearer nope"}, fiber.StatusUnauthorized},
		{"wrong admin token", map[string]string{"X-Admin-Token": "guess"}, fiber.StatusUnauthorized},
		{"admin token", map[string]string{"X-Admin-Token": "letmein"}, fiber.StatusOK},
		{"non-admin user", map[string]string{"Authorization": "Bearer " + signToken(t, uuid.NewString())}, fiber.StatusForbidden},
		{"admin user", map[string]string{"Authorization": "Bearer " + signToken(t, admin.String())}, fiber.StatusOK},
		{"non-uuid subject", map[string]string{"Authorization": "Bearer " + signToken(t, "someone")}, fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestValidAdminToken_DisabledWhenUnset(t *testing.T) {
	assert.False(t, validAdminToken(&config.Config{}, ""))
	assert.False(t, validAdminToken(&config.Config{}, "anything"))
	assert.True(t, validAdminToken(&config.Config{AdminToken: "x"}, "x"))
}

func TestRequestLogContext_TagsServiceLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewMultiHandler(slog.NewJSONHandler(&buf, nil)))

	app := fiber.New()
	app.Use(requestid.New(), RequestLogContext())
	app.Get("/reports", func(c *fiber.Ctx) error {
		logger.InfoContext(c.UserContext(), "reports listed")
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/reports", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}
