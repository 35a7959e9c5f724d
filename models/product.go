package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Price is a fixed-point decimal with
// two digits of precision; Stock never goes below zero.
type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"not null"`
	SKU       string          `gorm:"uniqueIndex;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock     int             `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) TableName() string {
	return "products"
}
