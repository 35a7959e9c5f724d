package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus normalizes a raw status string (any case) into an
// OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusPaid:
		return StatusPaid, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// Orders move strictly forward: once paid they can only be cancelled,
// and cancellation is terminal.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusCancelled: true},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Order is created in PENDING status with a total computed from its
// items' unit-price snapshots. The total never changes after creation.
type Order struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"not null;index"`
	Status      OrderStatus     `gorm:"type:varchar(16);not null;default:'PENDING'"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o *Order) TableName() string {
	return "orders"
}

// OrderItem is one validated line of an order. UnitPrice is a snapshot of
// the product price at order time and must not track later price changes.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null"`
	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}
