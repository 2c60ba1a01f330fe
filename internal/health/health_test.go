package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		pings  map[string]PingFunc
		status Status
	}{
		{name: "all healthy", pings: map[string]PingFunc{"postgres": ok, "redis": ok}, status: StatusHealthy},
		{
			name: "one down",
			pings: map[string]PingFunc{
				"postgres": ok,
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			status: StatusUnhealthy,
		},
		{name: "no dependencies", pings: nil, status: StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewChecker("test", tt.pings).Check(context.Background())
			assert.Equal(t, tt.status, got.Status)
			assert.Len(t, got.Checks, len(tt.pings))
		})
	}
}

func TestReadyHandler(t *testing.T) {
	checker := NewChecker("1.0.0", map[string]PingFunc{
		"postgres": ok,
		"redis":    func(context.Context) error { return errors.New("down") },
	})

	app := fiber.New()
	app.Get("/health/live", checker.LiveHandler())
	app.Get("/health/ready", checker.ReadyHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, StatusHealthy, body.Checks["postgres"].Status)
	assert.Equal(t, "down", body.Checks["redis"].Error)
}
