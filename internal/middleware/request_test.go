package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID(), RequestLogger())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("request_id").(string))
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "busy")
	})
	return app
}

func TestRequestID_Generated(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)

	id := resp.Header.Get(HeaderRequestID)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestID_Propagated(t *testing.T) {
	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, incoming)

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get(HeaderRequestID))
}

func TestRequestID_RejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "<script>")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "<script>", resp.Header.Get(HeaderRequestID))
}

func TestRequestLogger_PassesErrorsThrough(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
