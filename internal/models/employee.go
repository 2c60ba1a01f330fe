package models

import "time"

type Employee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Position     string    `gorm:"size:50" json:"position"` // crew, host, manager...
	Phone        string    `gorm:"size:50" json:"phone"`
	IsManager    bool      `gorm:"not null;default:false" json:"is_manager"`
	IsTrainee    bool      `gorm:"not null;default:false" json:"is_trainee"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
