package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"controlos-backend/internal/config"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret}

	app := fiber.New()
	app.Use(JWTMiddleware(cfg))
	app.Get("/scope", func(c *fiber.Ctx) error {
		rid, err := RestaurantID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"restaurant_id": rid})
	})
	app.Get("/admin", RequireRole(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWTMiddleware(t *testing.T) {
	app := newTestApp(t)
	rid := uint(7)
	manager := &models.User{ID: 3, Email: "m@controlos.pt", Role: models.RoleRestaurantManager, RestaurantID: &rid}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTCustomClaims{
		UserID: 3,
		Role:   models.RoleRestaurantManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredStr, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{name: "missing header", header: "", path: "/scope", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", path: "/scope", want: fiber.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expiredStr, path: "/scope", want: fiber.StatusUnauthorized},
		{name: "manager scoped to own restaurant", header: bearer(t, manager), path: "/scope", want: fiber.StatusOK},
		{name: "manager cannot reach admin", header: bearer(t, manager), path: "/admin", want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRestaurantID_SuperAdminNeedsQuery(t *testing.T) {
	app := newTestApp(t)
	admin := &models.User{ID: 1, Email: "a@controlos.pt", Role: models.RoleSuperAdmin}

	req := httptest.NewRequest("GET", "/scope", nil)
	req.Header.Set("Authorization", bearer(t, admin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("GET", "/scope?restaurant_id=12", nil)
	req.Header.Set("Authorization", bearer(t, admin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, admin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
