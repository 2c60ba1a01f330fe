package models

import "time"

type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"
	ScheduleFinalized ScheduleStatus = "finalized"
)

// StationAssignments maps a station ID to the employees placed there.
type StationAssignments map[string][]uint

type ChannelGC struct {
	Counter  int `json:"counter"`
	SOK      int `json:"sok"`
	Drive    int `json:"drive"`
	Delivery int `json:"delivery"`
}

// HourlyProjection is derived from a forecast and regenerated each time one is applied.
type HourlyProjection struct {
	Hour       string    `json:"hour"`
	Timeslot   string    `json:"timeslot"`
	TotalSales int       `json:"total_sales"`
	TotalGC    int       `json:"total_gc"`
	ChannelGC  ChannelGC `json:"channel_gc"`
}

// DailySchedule is the positioning plan of one restaurant for one date.
type DailySchedule struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_schedule_restaurant_date" json:"restaurant_id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_schedule_restaurant_date" json:"date"`

	Shifts          JSON[PerShift[StationAssignments]] `gorm:"type:jsonb" json:"shifts"`
	Trainees        JSON[PerShift[StationAssignments]] `gorm:"type:jsonb" json:"trainees"`
	ShiftManagers   JSON[PerShift[*uint]]              `gorm:"type:jsonb" json:"shift_managers"`
	ShiftObjectives JSON[PerShift[string]]             `gorm:"type:jsonb" json:"shift_objectives"`

	// Sales figure per shift that drives the staffing requirement.
	ShiftSales  JSON[PerShift[float64]]  `gorm:"type:jsonb" json:"shift_sales"`
	Projections JSON[[]HourlyProjection] `gorm:"type:jsonb" json:"projections"`

	IsLocked    bool       `gorm:"not null;default:false" json:"is_locked"`
	FinalizedAt *time.Time `json:"finalized_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *DailySchedule) Status() ScheduleStatus {
	if s.IsLocked {
		return ScheduleFinalized
	}
	return ScheduleDraft
}
