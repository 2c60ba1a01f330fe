package models

// StaffingTableEntry maps a sales range to a required headcount.
// Entries are replaced wholesale; Position keeps the table order.
type StaffingTableEntry struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	RestaurantID uint    `gorm:"index;not null" json:"-"`
	Position     int     `gorm:"not null" json:"position"`
	MinSales     float64 `gorm:"not null" json:"min_sales"`
	MaxSales     float64 `gorm:"not null" json:"max_sales"`
	StaffCount   int     `gorm:"not null" json:"staff_count"`
	StationLabel string  `gorm:"size:50" json:"station_label"`
}
