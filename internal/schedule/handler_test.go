package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testRestaurant uint = 7

// dryRunDB builds SQL without a server, so audit writes and name lookups succeed as no-ops.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=controlos dbname=controlos sslmode=disable",
	}), &gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

// memSchedules keeps committed schedules by date. Each run works on a copy and
// only a reported change is written back, like the transaction it replaces.
type memSchedules struct {
	tx    *gorm.DB
	byDay map[string]*models.DailySchedule
	saves int
}

func (m *memSchedules) run(_ context.Context, restaurantID uint, date time.Time, fn mutation) (*models.DailySchedule, bool, error) {
	key := date.Format("2006-01-02")
	stored, ok := m.byDay[key]
	if !ok {
		stored = New(restaurantID, date)
		stored.ID = uint(len(m.byDay) + 1)
		m.byDay[key] = stored
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, false, err
	}
	var work models.DailySchedule
	if err := json.Unmarshal(raw, &work); err != nil {
		return nil, false, err
	}
	normalize(&work)

	changed, err := fn(m.tx, &work)
	if err != nil {
		return nil, false, err
	}
	if changed {
		m.byDay[key] = &work
		m.saves++
	}
	return &work, changed, nil
}

func setupScheduleApp(t *testing.T) (*fiber.App, *memSchedules) {
	t.Helper()

	db := dryRunDB(t)
	prevDB, prevRun := database.DB, runLocked
	database.DB = db

	store := &memSchedules{tx: db, byDay: map[string]*models.DailySchedule{}}
	runLocked = store.run
	t.Cleanup(func() {
		database.DB, runLocked = prevDB, prevRun
	})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		rid := testRestaurant
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, models.RoleRestaurantManager)
		c.Locals(auth.CtxRestaurantIDKey, &rid)
		return c.Next()
	})
	app.Post("/api/schedules/:date/assignments", AssignHandler())
	app.Delete("/api/schedules/:date/assignments", UnassignHandler())
	app.Put("/api/schedules/:date/managers", SetManagerHandler())
	app.Put("/api/schedules/:date/objectives", SetObjectiveHandler())
	app.Post("/api/schedules/:date/finalize", FinalizeHandler())
	app.Post("/api/schedules/:date/unlock", UnlockHandler())
	return app, store
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (int, MutationResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out MutationResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func seedLocked(store *memSchedules) *models.DailySchedule {
	s := New(testRestaurant, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	s.ID = 1
	s.Shifts.Data.Midday = models.StationAssignments{"grill": {x}}
	s.ShiftObjectives.Data.Midday = "upsell desserts"
	Finalize(s, time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC))
	store.byDay["2024-03-01"] = s
	return s
}

func TestMutationsOnFinalizedSchedule_AreNoOps(t *testing.T) {
	app, store := setupScheduleApp(t)
	seedLocked(store)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"assign", http.MethodPost, "/api/schedules/2024-03-01/assignments", AssignmentRequest{Shift: "midday", Station: "fries", EmployeeID: x}},
		{"unassign", http.MethodDelete, "/api/schedules/2024-03-01/assignments", AssignmentRequest{Shift: "midday", Station: "grill", EmployeeID: x}},
		{"manager", http.MethodPut, "/api/schedules/2024-03-01/managers", ManagerRequest{Shift: "midday"}},
		{"objective", http.MethodPut, "/api/schedules/2024-03-01/objectives", ObjectiveRequest{Shift: "midday", Objective: "faster drive"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := send(t, app, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusOK, status)
			assert.False(t, out.Changed)
			assert.Equal(t, models.ScheduleFinalized, out.Schedule.Status)
			assert.Equal(t, []uint{x}, out.Schedule.Shifts.Data.Midday["grill"])
			assert.Equal(t, "upsell desserts", out.Schedule.ShiftObjectives.Data.Midday)
		})
	}

	assert.Zero(t, store.saves)
	stored := store.byDay["2024-03-01"]
	assert.True(t, stored.IsLocked)
	assert.Equal(t, models.StationAssignments{"grill": {x}}, stored.Shifts.Data.Midday)
}

func TestFinalizeAndUnlock_Persist(t *testing.T) {
	app, store := setupScheduleApp(t)

	status, out := send(t, app, http.MethodPut, "/api/schedules/2024-03-02/objectives", ObjectiveRequest{Shift: "opening", Objective: "clean fryers"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Changed)

	status, out = send(t, app, http.MethodPost, "/api/schedules/2024-03-02/finalize", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Changed)
	assert.Equal(t, models.ScheduleFinalized, out.Schedule.Status)
	assert.True(t, store.byDay["2024-03-02"].IsLocked)
	assert.NotNil(t, store.byDay["2024-03-02"].FinalizedAt)

	status, out = send(t, app, http.MethodPost, "/api/schedules/2024-03-02/finalize", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, out.Changed, "finalizing twice")

	status, out = send(t, app, http.MethodPost, "/api/schedules/2024-03-02/unlock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Changed)
	assert.Equal(t, models.ScheduleDraft, out.Schedule.Status)
	assert.False(t, store.byDay["2024-03-02"].IsLocked)
	assert.Nil(t, store.byDay["2024-03-02"].FinalizedAt)

	// editable again once unlocked
	status, out = send(t, app, http.MethodPut, "/api/schedules/2024-03-02/objectives", ObjectiveRequest{Shift: "opening", Objective: "restock sauces"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Changed)
	assert.Equal(t, "restock sauces", store.byDay["2024-03-02"].ShiftObjectives.Data.Opening)

	assert.Equal(t, 4, store.saves)
}

func TestMutationHandlers_RejectBadInput(t *testing.T) {
	app, store := setupScheduleApp(t)

	status, _ := send(t, app, http.MethodPut, "/api/schedules/2024-03-01/objectives", ObjectiveRequest{Shift: "brunch"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = send(t, app, http.MethodPut, "/api/schedules/01-03-2024/objectives", ObjectiveRequest{Shift: "midday"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = send(t, app, http.MethodPost, "/api/schedules/2024-03-01/assignments", AssignmentRequest{Shift: "midday"})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Zero(t, store.saves)
}

func TestEnsureRow_SkipsExistingDraft(t *testing.T) {
	db := dryRunDB(t)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return ensureRow(tx, testRestaurant, date)
	})
	assert.Contains(t, sql, `INSERT INTO "daily_schedules"`)
	assert.Contains(t, sql, `ON CONFLICT ("restaurant_id","date") DO NOTHING`)
}
