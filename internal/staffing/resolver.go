package staffing

import (
	"cmp"
	"fmt"
	"slices"

	"controlos-backend/internal/models"
)

const (
	LabelNoTable = "N/A"
	LabelNoMatch = "0"
)

// Requirement is the headcount derived from a sales figure. Never stored.
type Requirement struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// Resolve scans table in the given order and returns the first entry whose
// inclusive range holds sales. Overlaps are decided by table order.
// Sales above the last entry's max (last by position, not by value) fall back to
// that entry; sales below the table or in a gap resolve to {0, "0"}.
func Resolve(sales float64, table []models.StaffingTableEntry) Requirement {
	if len(table) == 0 {
		return Requirement{Count: 0, Label: LabelNoTable}
	}

	for _, e := range table {
		if sales >= e.MinSales && sales <= e.MaxSales {
			return Requirement{Count: e.StaffCount, Label: e.StationLabel}
		}
	}

	last := table[len(table)-1]
	if sales > last.MaxSales {
		return Requirement{Count: last.StaffCount, Label: last.StationLabel}
	}

	return Requirement{Count: 0, Label: LabelNoMatch}
}

// RecommendedStations collects the station labels unlocked at or below req.Count.
// This is a threshold filter over the whole table, not a range match.
func RecommendedStations(table []models.StaffingTableEntry, req Requirement) map[string]struct{} {
	set := make(map[string]struct{})
	for _, label := range RecommendedStationList(table, req) {
		set[label] = struct{}{}
	}
	return set
}

// RecommendedStationList is RecommendedStations in ascending staff-count order.
func RecommendedStationList(table []models.StaffingTableEntry, req Requirement) []string {
	sorted := slices.Clone(table)
	slices.SortStableFunc(sorted, func(a, b models.StaffingTableEntry) int {
		return cmp.Compare(a.StaffCount, b.StaffCount)
	})

	seen := make(map[string]struct{})
	out := make([]string, 0, len(sorted))
	for _, e := range sorted {
		if e.StaffCount > req.Count {
			break
		}
		if _, ok := seen[e.StationLabel]; ok {
			continue
		}
		seen[e.StationLabel] = struct{}{}
		out = append(out, e.StationLabel)
	}
	return out
}

// Validate checks a replacement table before it is stored.
func Validate(table []models.StaffingTableEntry) error {
	for i, e := range table {
		if e.MinSales < 0 || e.MaxSales < 0 {
			return &EntryError{Index: i, Reason: "sales bounds must not be negative"}
		}
		if e.MinSales > e.MaxSales {
			return &EntryError{Index: i, Reason: "min_sales is greater than max_sales"}
		}
		if e.StaffCount < 0 {
			return &EntryError{Index: i, Reason: "staff_count must not be negative"}
		}
	}
	return nil
}

type EntryError struct {
	Index  int
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
}
