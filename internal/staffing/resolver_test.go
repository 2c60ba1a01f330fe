package staffing

import (
	"testing"

	"controlos-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(min, max float64, count int, label string) models.StaffingTableEntry {
	return models.StaffingTableEntry{MinSales: min, MaxSales: max, StaffCount: count, StationLabel: label}
}

func sortedTable() []models.StaffingTableEntry {
	return []models.StaffingTableEntry{
		entry(0, 500, 3, "grill"),
		entry(501, 1000, 5, "fries"),
		entry(1001, 2000, 8, "drive"),
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		sales float64
		table []models.StaffingTableEntry
		want  Requirement
	}{
		{name: "empty table", sales: 800, table: nil, want: Requirement{0, "N/A"}},
		{name: "empty table at zero", sales: 0, table: []models.StaffingTableEntry{}, want: Requirement{0, "N/A"}},
		{name: "lower bound inclusive", sales: 0, table: sortedTable(), want: Requirement{3, "grill"}},
		{name: "upper bound inclusive", sales: 500, table: sortedTable(), want: Requirement{3, "grill"}},
		{name: "middle entry", sales: 750, table: sortedTable(), want: Requirement{5, "fries"}},
		{name: "last entry upper bound", sales: 2000, table: sortedTable(), want: Requirement{8, "drive"}},
		{name: "above table falls back to last", sales: 9000, table: sortedTable(), want: Requirement{8, "drive"}},
		{name: "gap between entries", sales: 500.5, table: sortedTable(), want: Requirement{0, "0"}},
		{
			name:  "below table",
			sales: 50,
			table: []models.StaffingTableEntry{entry(100, 500, 3, "grill")},
			want:  Requirement{0, "0"},
		},
		{
			name:  "overlap resolved by table order",
			sales: 450,
			table: []models.StaffingTableEntry{entry(400, 900, 6, "late"), entry(0, 500, 3, "early")},
			want:  Requirement{6, "late"},
		},
		{
			name:  "fallback uses last by position, not by value",
			sales: 1500,
			table: []models.StaffingTableEntry{entry(1001, 2000, 8, "drive"), entry(0, 500, 3, "grill")},
			want:  Requirement{8, "drive"},
		},
		{
			name:  "above last by position but inside nothing",
			sales: 700,
			table: []models.StaffingTableEntry{entry(1001, 2000, 8, "drive"), entry(0, 500, 3, "grill")},
			want:  Requirement{3, "grill"},
		},
		{
			name:  "below last by position in unsorted table",
			sales: 300,
			table: []models.StaffingTableEntry{entry(0, 100, 2, "till"), entry(1001, 2000, 8, "drive")},
			want:  Requirement{0, "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.sales, tt.table))
		})
	}
}

func TestResolve_EveryEntryOwnsItsRange(t *testing.T) {
	table := sortedTable()
	for i, e := range table {
		for _, sales := range []float64{e.MinSales, (e.MinSales + e.MaxSales) / 2, e.MaxSales} {
			got := Resolve(sales, table)
			assert.Equal(t, Requirement{table[i].StaffCount, table[i].StationLabel}, got, "sales=%v", sales)
		}
	}
}

func TestRecommendedStations(t *testing.T) {
	table := []models.StaffingTableEntry{
		entry(1001, 2000, 8, "drive"),
		entry(0, 500, 3, "grill"),
		entry(501, 1000, 5, "fries"),
	}

	req := Resolve(750, table)
	assert.Equal(t, []string{"grill", "fries"}, RecommendedStationList(table, req))

	set := RecommendedStations(table, req)
	assert.Len(t, set, 2)
	assert.Contains(t, set, "grill")
	assert.Contains(t, set, "fries")
	assert.NotContains(t, set, "drive")

	// input order is untouched
	assert.Equal(t, "drive", table[0].StationLabel)
}

func TestRecommendedStations_NoMatchKeepsZeroThreshold(t *testing.T) {
	table := []models.StaffingTableEntry{entry(0, 0, 0, "host"), entry(100, 500, 3, "grill")}

	req := Resolve(50, table)
	assert.Equal(t, Requirement{0, "0"}, req)
	assert.Equal(t, []string{"host"}, RecommendedStationList(table, req))
}

func TestRecommendedStations_DuplicateLabels(t *testing.T) {
	table := []models.StaffingTableEntry{entry(0, 500, 3, "grill"), entry(501, 900, 4, "grill")}
	assert.Equal(t, []string{"grill"}, RecommendedStationList(table, Requirement{Count: 4}))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sortedTable()))
	assert.NoError(t, Validate(nil))

	err := Validate([]models.StaffingTableEntry{entry(0, 100, 2, "a"), entry(300, 200, 3, "b")})
	var entryErr *EntryError
	if assert.ErrorAs(t, err, &entryErr) {
		assert.Equal(t, 1, entryErr.Index)
	}

	assert.Error(t, Validate([]models.StaffingTableEntry{entry(0, 100, -1, "a")}))
	assert.Error(t, Validate([]models.StaffingTableEntry{entry(-5, 100, 1, "a")}))
}
