package snapshot

import (
	"testing"
	"time"

	"controlos-backend/internal/models"
	"controlos-backend/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultsForTest(t *testing.T) settings.Document {
	t.Helper()
	doc, err := settings.Defaults()
	require.NoError(t, err)
	return doc
}

func historyOn(day time.Time) models.HistoryEntry {
	return models.HistoryEntry{Date: day, TotalSales: 100}
}

func scheduleOn(day time.Time) models.DailySchedule {
	return models.DailySchedule{Date: day}
}

func tableEntry(min, max float64) models.StaffingTableEntry {
	return models.StaffingTableEntry{MinSales: min, MaxSales: max, StaffCount: 1}
}

func TestSnapshot_Validate(t *testing.T) {
	valid := func() *Snapshot {
		return &Snapshot{Settings: defaultsForTest(t)}
	}

	assert.NoError(t, valid().Validate())

	s := valid()
	s.Settings.Timeslots = nil
	assert.Error(t, s.Validate())

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s = valid()
	s.History = append(s.History, historyOn(day), historyOn(day))
	assert.ErrorIs(t, s.Validate(), ErrDuplicateDate)

	s = valid()
	s.Schedules = append(s.Schedules, scheduleOn(day), scheduleOn(day))
	assert.ErrorIs(t, s.Validate(), ErrDuplicateDate)

	s = valid()
	s.StaffingTable = append(s.StaffingTable, tableEntry(10, 5))
	assert.Error(t, s.Validate())
}
