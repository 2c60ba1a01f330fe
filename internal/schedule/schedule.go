// Package schedule holds the per-date positioning plan and its draft/finalized lifecycle.
//
// Every mutator reports whether it changed the schedule. A finalized schedule
// turns all assignment, manager and objective mutators into no-ops until it is
// unlocked.
package schedule

import (
	"slices"
	"time"

	"controlos-backend/internal/models"
	"controlos-backend/internal/staffing"
)

// New returns an empty draft schedule for date.
func New(restaurantID uint, date time.Time) *models.DailySchedule {
	s := &models.DailySchedule{
		RestaurantID: restaurantID,
		Date:         date,
	}
	normalize(s)
	return s
}

// normalize makes every per-shift map non-nil so mutators and JSON output agree.
func normalize(s *models.DailySchedule) {
	for _, shift := range models.ShiftTypes {
		if m := s.Shifts.Data.At(shift); *m == nil {
			*m = models.StationAssignments{}
		}
		if m := s.Trainees.Data.At(shift); *m == nil {
			*m = models.StationAssignments{}
		}
	}
	if s.Projections.Data == nil {
		s.Projections.Data = []models.HourlyProjection{}
	}
}

// assign enforces one station per employee per shift within a single map.
func assign(ps *models.PerShift[models.StationAssignments], shift models.ShiftType, station string, employeeID uint) bool {
	m := ps.At(shift)
	if m == nil || station == "" {
		return false
	}
	if *m == nil {
		*m = models.StationAssignments{}
	}

	changed := false
	for st, ids := range *m {
		if st == station {
			continue
		}
		if kept := removeID(ids, employeeID); len(kept) != len(ids) {
			changed = true
			if len(kept) == 0 {
				delete(*m, st)
			} else {
				(*m)[st] = kept
			}
		}
	}

	if !slices.Contains((*m)[station], employeeID) {
		(*m)[station] = append((*m)[station], employeeID)
		changed = true
	}
	return changed
}

func unassign(ps *models.PerShift[models.StationAssignments], shift models.ShiftType, station string, employeeID uint) bool {
	m := ps.At(shift)
	if m == nil || *m == nil {
		return false
	}
	ids, ok := (*m)[station]
	if !ok {
		return false
	}
	kept := removeID(ids, employeeID)
	if len(kept) == len(ids) {
		return false
	}
	if len(kept) == 0 {
		delete(*m, station)
	} else {
		(*m)[station] = kept
	}
	return true
}

func removeID(ids []uint, id uint) []uint {
	if !slices.Contains(ids, id) {
		return ids
	}
	out := make([]uint, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func AssignStaff(s *models.DailySchedule, shift models.ShiftType, station string, employeeID uint) bool {
	if s.IsLocked {
		return false
	}
	return assign(&s.Shifts.Data, shift, station, employeeID)
}

func UnassignStaff(s *models.DailySchedule, shift models.ShiftType, station string, employeeID uint) bool {
	if s.IsLocked {
		return false
	}
	return unassign(&s.Shifts.Data, shift, station, employeeID)
}

// AssignTrainee works like AssignStaff on the separate trainee map.
func AssignTrainee(s *models.DailySchedule, shift models.ShiftType, station string, employeeID uint) bool {
	if s.IsLocked {
		return false
	}
	return assign(&s.Trainees.Data, shift, station, employeeID)
}

func UnassignTrainee(s *models.DailySchedule, shift models.ShiftType, station string, employeeID uint) bool {
	if s.IsLocked {
		return false
	}
	return unassign(&s.Trainees.Data, shift, station, employeeID)
}

// SetManager sets or clears (nil) the manager of shift.
func SetManager(s *models.DailySchedule, shift models.ShiftType, employeeID *uint) bool {
	if s.IsLocked {
		return false
	}
	cur := s.ShiftManagers.Data.At(shift)
	if cur == nil {
		return false
	}
	switch {
	case *cur == nil && employeeID == nil:
		return false
	case *cur != nil && employeeID != nil && **cur == *employeeID:
		return false
	}
	if employeeID == nil {
		*cur = nil
	} else {
		id := *employeeID
		*cur = &id
	}
	return true
}

func SetObjective(s *models.DailySchedule, shift models.ShiftType, text string) bool {
	if s.IsLocked {
		return false
	}
	cur := s.ShiftObjectives.Data.At(shift)
	if cur == nil || *cur == text {
		return false
	}
	*cur = text
	return true
}

// ApplyForecast replaces the projections and the per-shift sales they imply.
func ApplyForecast(s *models.DailySchedule, projections []models.HourlyProjection, sales models.PerShift[float64]) bool {
	if s.IsLocked {
		return false
	}
	s.Projections = models.NewJSON(projections)
	s.ShiftSales = models.NewJSON(sales)
	return true
}

// Finalize locks a draft. The caller persists the result.
func Finalize(s *models.DailySchedule, now time.Time) bool {
	if s.IsLocked {
		return false
	}
	s.IsLocked = true
	s.FinalizedAt = &now
	return true
}

// Unlock returns a finalized schedule to draft.
func Unlock(s *models.DailySchedule) bool {
	if !s.IsLocked {
		return false
	}
	s.IsLocked = false
	s.FinalizedAt = nil
	return true
}

// CurrentAssignedCount is the number of distinct staff placed in shift.
// An ID listed under two stations counts once. Trainees never count.
func CurrentAssignedCount(s *models.DailySchedule, shift models.ShiftType) int {
	return len(distinct(s.Shifts.Data.At(shift)))
}

func distinct(m *models.StationAssignments) map[uint]struct{} {
	set := map[uint]struct{}{}
	if m == nil {
		return set
	}
	for _, ids := range *m {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set
}

// Gap is required minus assigned. Positive means short-staffed; it never blocks finalizing.
func Gap(req staffing.Requirement, assigned int) int {
	return req.Count - assigned
}

type GapStatus string

const (
	GapOK    GapStatus = "ok"
	GapShort GapStatus = "short"
)

type KPI struct {
	Shift               models.ShiftType     `json:"shift"`
	Sales               float64              `json:"sales"`
	Requirement         staffing.Requirement `json:"requirement"`
	Assigned            int                  `json:"assigned"`
	Trainees            int                  `json:"trainees"`
	Gap                 int                  `json:"gap"`
	Status              GapStatus            `json:"status"`
	RecommendedStations []string             `json:"recommended_stations"`
	ManagerID           *uint                `json:"manager_id"`
	Objective           string               `json:"objective"`
}

// ComputeKPI resolves the shift's requirement from its sales and compares it to who is placed.
func ComputeKPI(s *models.DailySchedule, shift models.ShiftType, table []models.StaffingTableEntry) KPI {
	sales := *s.ShiftSales.Data.At(shift)
	req := staffing.Resolve(sales, table)
	assigned := CurrentAssignedCount(s, shift)
	gap := Gap(req, assigned)

	status := GapOK
	if gap > 0 {
		status = GapShort
	}

	return KPI{
		Shift:               shift,
		Sales:               sales,
		Requirement:         req,
		Assigned:            assigned,
		Trainees:            len(distinct(s.Trainees.Data.At(shift))),
		Gap:                 gap,
		Status:              status,
		RecommendedStations: staffing.RecommendedStationList(table, req),
		ManagerID:           *s.ShiftManagers.Data.At(shift),
		Objective:           *s.ShiftObjectives.Data.At(shift),
	}
}
