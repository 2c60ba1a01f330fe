package models

import "time"

type SlotFigures struct {
	Sales float64 `json:"sales"`
	GC    int     `json:"gc"`
}

// HistoryEntry holds one imported day of sales. Immutable except for deletion.
type HistoryEntry struct {
	ID           uint                         `gorm:"primaryKey" json:"id"`
	RestaurantID uint                         `gorm:"not null;uniqueIndex:idx_history_restaurant_date" json:"restaurant_id"`
	Date         time.Time                    `gorm:"type:date;not null;uniqueIndex:idx_history_restaurant_date" json:"date"`
	DayOfWeek    int                          `gorm:"index;not null" json:"day_of_week"` // 0=Sunday
	TotalSales   float64                      `gorm:"not null" json:"total_sales"`
	TotalGC      int                          `gorm:"not null" json:"total_gc"`
	Slots        JSON[map[string]SlotFigures] `gorm:"type:jsonb" json:"slots"`
	CreatedAt    time.Time                    `json:"created_at"`
}
