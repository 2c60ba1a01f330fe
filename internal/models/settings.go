package models

import "time"

type Station struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// ShiftWindow covers hours [StartHour, EndHour). EndHour <= StartHour wraps past midnight.
type ShiftWindow struct {
	StartHour int `json:"start_hour" yaml:"start_hour"`
	EndHour   int `json:"end_hour" yaml:"end_hour"`
}

func (w ShiftWindow) Contains(hour int) bool {
	if w.StartHour == w.EndHour {
		return false
	}
	if w.StartHour < w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

type AppSettings struct {
	ID             uint                        `gorm:"primaryKey" json:"-"`
	RestaurantID   uint                        `gorm:"not null;uniqueIndex" json:"restaurant_id"`
	Timeslots      JSON[[]string]              `gorm:"type:jsonb" json:"timeslots"`
	ShiftWindows   JSON[PerShift[ShiftWindow]] `gorm:"type:jsonb" json:"shift_windows"`
	CustomStations JSON[PerArea[[]Station]]    `gorm:"type:jsonb" json:"custom_stations"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// AllStations flattens custom stations in area order.
func (s *AppSettings) AllStations() []Station {
	var out []Station
	for _, area := range Areas {
		out = append(out, *s.CustomStations.Data.At(area)...)
	}
	return out
}
