package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerShift_At(t *testing.T) {
	var p PerShift[int]
	for i, st := range ShiftTypes {
		*p.At(st) = i + 1
	}

	assert.Equal(t, PerShift[int]{Opening: 1, Midday: 2, Closing: 3, Overnight: 4}, p)
	assert.Nil(t, p.At("brunch"))
}

func TestParseShiftType(t *testing.T) {
	st, ok := ParseShiftType("closing")
	assert.True(t, ok)
	assert.Equal(t, ShiftClosing, st)

	_, ok = ParseShiftType("Closing")
	assert.False(t, ok)
}

func TestJSONColumn_RoundTripThroughDriver(t *testing.T) {
	col := NewJSON(PerShift[StationAssignments]{
		Opening: StationAssignments{"grill": {1, 2}},
	})

	v, err := col.Value()
	require.NoError(t, err)

	var back JSON[PerShift[StationAssignments]]
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, []uint{1, 2}, back.Data.Opening["grill"])

	require.NoError(t, back.Scan(nil))
	assert.Nil(t, back.Data.Opening)
}

func TestJSONColumn_MarshalsAsInnerValue(t *testing.T) {
	b, err := json.Marshal(struct {
		Slots JSON[[]string] `json:"slots"`
	}{Slots: NewJSON([]string{"11:00-12:00"})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"slots":["11:00-12:00"]}`, string(b))
}
