package schedule

import (
	"fmt"
	"sort"
	"strings"

	"controlos-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Schedule"

// ExportInput carries the lookups the workbook needs besides the schedule itself.
type ExportInput struct {
	Schedule *models.DailySchedule
	Stations []models.Station
	Names    map[uint]string
	Table    []models.StaffingTableEntry
}

func (in ExportInput) name(id uint) string {
	if n, ok := in.Names[id]; ok {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

func (in ExportInput) names(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, in.name(id))
	}
	return strings.Join(parts, ", ")
}

// stationRows orders configured stations first, then any stored station IDs the
// settings no longer know about.
func (in ExportInput) stationRows(shift models.ShiftType) []models.Station {
	rows := append([]models.Station(nil), in.Stations...)
	known := make(map[string]struct{}, len(rows))
	for _, st := range rows {
		known[st.ID] = struct{}{}
	}

	var extra []string
	for _, m := range []*models.StationAssignments{in.Schedule.Shifts.Data.At(shift), in.Schedule.Trainees.Data.At(shift)} {
		for id := range *m {
			if _, ok := known[id]; !ok {
				known[id] = struct{}{}
				extra = append(extra, id)
			}
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		rows = append(rows, models.Station{ID: id, Label: id})
	}
	return rows
}

// BuildWorkbook lays the schedule out as one block per shift.
func BuildWorkbook(in ExportInput) (*excelize.File, error) {
	s := in.Schedule
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	shiftStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C8102E"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	row := 1
	set := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(exportSheet, cell, v)
	}
	styleRow := func(style int, lastCol int) {
		from, _ := excelize.CoordinatesToCellName(1, row)
		to, _ := excelize.CoordinatesToCellName(lastCol, row)
		_ = f.SetCellStyle(exportSheet, from, to, style)
	}

	set(1, "Schedule "+s.Date.Format("2006-01-02"))
	set(3, string(s.Status()))
	styleRow(bold, 3)
	row += 2

	for _, shift := range models.ShiftTypes {
		kpi := ComputeKPI(s, shift, in.Table)

		set(1, strings.ToUpper(string(shift)))
		styleRow(shiftStyle, 4)
		row++

		manager := ""
		if kpi.ManagerID != nil {
			manager = in.name(*kpi.ManagerID)
		}
		for _, kv := range [][2]any{
			{"Sales", kpi.Sales},
			{"Required", fmt.Sprintf("%d (%s)", kpi.Requirement.Count, kpi.Requirement.Label)},
			{"Assigned", kpi.Assigned},
			{"Gap", kpi.Gap},
			{"Manager", manager},
			{"Objective", kpi.Objective},
		} {
			set(1, kv[0])
			set(2, kv[1])
			row++
		}

		set(1, "Station")
		set(2, "Staff")
		set(3, "Trainees")
		styleRow(bold, 3)
		row++

		staff := *s.Shifts.Data.At(shift)
		trainees := *s.Trainees.Data.At(shift)
		for _, st := range in.stationRows(shift) {
			if len(staff[st.ID]) == 0 && len(trainees[st.ID]) == 0 {
				continue
			}
			set(1, st.Label)
			set(2, in.names(staff[st.ID]))
			set(3, in.names(trainees[st.ID]))
			row++
		}
		row++
	}

	if len(s.Projections.Data) > 0 {
		set(1, "Hour")
		set(2, "Sales")
		set(3, "GC")
		set(4, "Counter")
		set(5, "SOK")
		set(6, "Drive")
		set(7, "Delivery")
		styleRow(bold, 7)
		row++
		for _, p := range s.Projections.Data {
			set(1, p.Hour)
			set(2, p.TotalSales)
			set(3, p.TotalGC)
			set(4, p.ChannelGC.Counter)
			set(5, p.ChannelGC.SOK)
			set(6, p.ChannelGC.Drive)
			set(7, p.ChannelGC.Delivery)
			row++
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "B", "C", 40); err != nil {
		return nil, err
	}
	return f, nil
}
