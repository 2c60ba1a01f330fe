package settings

import (
	"testing"

	"controlos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	doc, err := Defaults()
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	assert.Equal(t, "07:00-08:00", doc.Timeslots[0])
	assert.Equal(t, models.ShiftWindow{StartHour: 23, EndHour: 6}, doc.ShiftWindows.Overnight)
	assert.Equal(t, models.Station{ID: "grill", Label: "Grill"}, doc.CustomStations.Kitchen[0])
	assert.Len(t, doc.CustomStations.Delivery, 1)
}

func TestDefaults_ReturnsCopies(t *testing.T) {
	first, err := Defaults()
	require.NoError(t, err)
	first.Timeslots[0] = "changed"
	first.CustomStations.Kitchen[0].ID = "changed"

	second, err := Defaults()
	require.NoError(t, err)
	assert.Equal(t, "07:00-08:00", second.Timeslots[0])
	assert.Equal(t, "grill", second.CustomStations.Kitchen[0].ID)
}

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument([]byte(`
timeslots: ["10:00-11:00"]
shift_windows:
  midday: {start_hour: 10, end_hour: 15}
custom_stations:
  drive:
    - {id: window, label: Window}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00-11:00"}, doc.Timeslots)
	assert.Equal(t, 15, doc.ShiftWindows.Midday.EndHour)
	assert.Equal(t, "window", doc.CustomStations.Drive[0].ID)
	assert.Empty(t, doc.CustomStations.Kitchen)

	_, err = parseDocument([]byte("timeslots: {"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Document {
		doc, err := Defaults()
		require.NoError(t, err)
		return doc
	}

	tests := []struct {
		name   string
		mutate func(*Document)
		want   error
	}{
		{name: "no timeslots", mutate: func(d *Document) { d.Timeslots = nil }, want: ErrNoTimeslots},
		{name: "blank timeslot", mutate: func(d *Document) { d.Timeslots = []string{" "} }, want: ErrNoTimeslots},
		{name: "duplicate timeslot", mutate: func(d *Document) { d.Timeslots = append(d.Timeslots, d.Timeslots[0]) }, want: ErrDuplicateTimeslot},
		{name: "window out of range", mutate: func(d *Document) { d.ShiftWindows.Closing.EndHour = 25 }, want: ErrInvalidWindow},
		{name: "empty station id", mutate: func(d *Document) { d.CustomStations.Service[0].ID = "" }, want: ErrInvalidStation},
		{
			name: "station id reused across areas",
			mutate: func(d *Document) {
				d.CustomStations.Delivery = append(d.CustomStations.Delivery, models.Station{ID: "grill"})
			},
			want: ErrInvalidStation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(&doc)
			assert.ErrorIs(t, doc.Validate(), tt.want)
		})
	}
}

func TestFromModel_AllStations(t *testing.T) {
	doc, err := Defaults()
	require.NoError(t, err)

	var s models.AppSettings
	doc.apply(&s)

	assert.Equal(t, doc, FromModel(s))
	stations := s.AllStations()
	assert.Equal(t, "grill", stations[0].ID)
	assert.Equal(t, "delivery", stations[len(stations)-1].ID)
}
