package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending    InvoiceStatus = "pending"
	InvoiceReconciled InvoiceStatus = "reconciled"
	InvoiceMismatch   InvoiceStatus = "mismatch"
)

type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RestaurantID  uint            `gorm:"index;not null" json:"restaurant_id"`
	Supplier      string          `gorm:"size:150" json:"supplier"`
	Number        string          `gorm:"size:60;index" json:"number"`
	Date          time.Time       `gorm:"type:date;index;not null" json:"date"`
	DeclaredTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"declared_total"`
	Status        InvoiceStatus   `gorm:"size:20;not null;default:'pending'" json:"status"`
	Source        string          `gorm:"size:20" json:"source"` // pdf, text, order_page, manual
	Lines         []InvoiceLine   `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type InvoiceLine struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	InvoiceID   uint            `gorm:"index;not null" json:"-"`
	Position    int             `json:"position"`
	Code        string          `gorm:"size:50" json:"code"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3)" json:"quantity"`
	Unit        string          `gorm:"size:20" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,4)" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
}
