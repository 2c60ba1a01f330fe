package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controlos-backend/internal/config"
	"controlos-backend/internal/models"
	"controlos-backend/internal/staffing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *Client {
	return New(&config.Config{AdvisorURL: url, AdvisorAPIKey: "secret", AdvisorTimeout: 2 * time.Second})
}

func TestNew_DisabledWithoutURL(t *testing.T) {
	c := New(&config.Config{})
	assert.Nil(t, c)
	assert.False(t, c.Enabled())

	_, err := c.Suggest(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSuggest_JSONAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.ShiftMidday, req.Shift)
		assert.Equal(t, 3, req.Requirement.Count)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestions":[{"employee_id":7,"station":"grill","reason":"experienced"}],"text":"Put Ana on grill"}`))
	}))
	defer srv.Close()

	ans, err := newClient(srv.URL).Suggest(context.Background(), Request{
		Shift:       models.ShiftMidday,
		Requirement: staffing.Requirement{Count: 3, Label: "3"},
	})
	require.NoError(t, err)
	require.Len(t, ans.Suggestions, 1)
	assert.Equal(t, uint(7), ans.Suggestions[0].EmployeeID)
	assert.Equal(t, "Put Ana on grill", ans.Text)
}

func TestSuggest_FreeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("  Keep two people on drive after 12h.\n"))
	}))
	defer srv.Close()

	ans, err := newClient(srv.URL).Suggest(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, ans.Suggestions)
	assert.NotNil(t, ans.Suggestions)
	assert.Equal(t, "Keep two people on drive after 12h.", ans.Text)
}

func TestSuggest_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Suggest(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFilter(t *testing.T) {
	ans := &Answer{Suggestions: []Suggestion{
		{EmployeeID: 1, Station: "grill"},
		{EmployeeID: 99, Station: "grill"},
		{EmployeeID: 2, Station: "moon"},
		{EmployeeID: 2, Station: "drive_window"},
	}}
	roster := []RosterEntry{{ID: 1}, {ID: 2}}
	stations := []models.Station{{ID: "grill"}, {ID: "drive_window"}}

	kept, discarded := Filter(ans, roster, stations)
	assert.Equal(t, 2, discarded)
	assert.Equal(t, []Suggestion{{EmployeeID: 1, Station: "grill"}, {EmployeeID: 2, Station: "drive_window"}}, kept)
}

func TestAdviceHandler_Disabled(t *testing.T) {
	app := fiber.New()
	app.Post("/api/schedules/:date/advice", AdviceHandler(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/schedules/2024-03-01/advice?shift=midday", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
