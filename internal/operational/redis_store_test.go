package operational

import (
	"context"
	"testing"
	"time"

	"controlos-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	store := NewRedisStore(client).(*redisStore)
	fixed := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	t.Run("missing month is empty", func(t *testing.T) {
		rec, err := store.Get(ctx, 1, "2024-03")
		require.NoError(t, err)
		assert.Equal(t, Empty("2024-03"), rec)
	})

	t.Run("put then get", func(t *testing.T) {
		rec := &Record{
			Month:   "2024-03",
			Targets: Targets{Sales: 90000, GC: 7000, LaborPercent: 22.5},
			Days:    map[string]DayFigures{"15": {Sales: 3100.5, GC: 240, LaborHours: 61, Note: "fryer down"}},
		}
		require.NoError(t, store.Put(ctx, 1, rec))

		got, err := store.Get(ctx, 1, "2024-03")
		require.NoError(t, err)
		assert.Equal(t, rec.Targets, got.Targets)
		assert.Equal(t, rec.Days, got.Days)
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, fixed.Equal(*got.UpdatedAt))

		raw, err := client.Get(ctx, "controlos:monthly:1:2024-03").Result()
		require.NoError(t, err)
		assert.Contains(t, raw, "fryer down")
	})

	t.Run("restaurants are isolated", func(t *testing.T) {
		rec, err := store.Get(ctx, 2, "2024-03")
		require.NoError(t, err)
		assert.Empty(t, rec.Days)
	})

	t.Run("list newest first", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, 1, Empty("2023-12")))
		require.NoError(t, store.Put(ctx, 1, Empty("2024-01")))

		months, err := store.ListMonths(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-03", "2024-01", "2023-12"}, months)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, 1, "2024-01"))

		months, err := store.ListMonths(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-03", "2023-12"}, months)

		rec, err := store.Get(ctx, 1, "2024-01")
		require.NoError(t, err)
		assert.Empty(t, rec.Days)
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := store.Get(ctx, 1, "24-3")
		assert.ErrorIs(t, err, ErrInvalidMonth)
		assert.ErrorIs(t, store.Put(ctx, 1, Empty("nope")), ErrInvalidMonth)
	})
}

func TestRecord_Validate(t *testing.T) {
	rec := Empty("2024-02")
	rec.Days["29"] = DayFigures{}
	assert.NoError(t, rec.Validate())

	rec.Days["30"] = DayFigures{}
	assert.ErrorIs(t, rec.Validate(), ErrInvalidDay)
}

func TestRecord_Summarize(t *testing.T) {
	rec := Empty("2024-02")
	assert.Equal(t, Summary{}, rec.Summarize())

	rec.Days["1"] = DayFigures{Sales: 100, GC: 0, Waste: 4}
	s := rec.Summarize()
	assert.Equal(t, 100.0, s.Sales)
	assert.Zero(t, s.AverageTicket)
	assert.Zero(t, s.SalesVsTarget)
	assert.Equal(t, 4.0, s.Waste)
	assert.Equal(t, 1, s.DaysRecorded)
}
