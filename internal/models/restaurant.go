package models

import "time"

type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:20;not null;uniqueIndex" json:"code"` // store identifier used by the snapshot
	Name      string    `gorm:"size:100;not null;unique" json:"name"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:50" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users []User `json:"-"`
}
