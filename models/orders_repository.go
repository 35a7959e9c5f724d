package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// ErrInsufficientStock is returned when a guarded stock decrement finds
// fewer units than the order needs.
var ErrInsufficientStock = errors.New("insufficient stock")

type OrdersRepository struct {
	db *gorm.DB
}

// OrderFilters narrows a listing. UserID zero means all users.
type OrderFilters struct {
	UserID uint
	Status OrderStatus
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

// CreateWithItems persists an order and all of its items as a single
// transaction, decrementing each product's stock with a guarded update.
// Either the complete order with all its items exists afterwards, or
// none of it does.
func (r *OrdersRepository) CreateWithItems(order *Order, items []OrderItem) (*Order, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
			res := tx.Model(&Product{}).
				Where("id = ? AND stock >= ?", items[i].ProductID, items[i].Quantity).
				Update("stock", gorm.Expr("stock - ?", items[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", items[i].ProductID, ErrInsufficientStock)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(order.ID)
}

// FindByID loads an order with its items and each item's product.
func (r *OrdersRepository) FindByID(id uint) (*Order, error) {
	var order Order
	if err := r.db.
		Preload("Items").
		Preload("Items.Product").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindFiltered lists orders most recent first, with the pre-pagination
// total count.
func (r *OrdersRepository) FindFiltered(offset, limit int, filters OrderFilters) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.Model(&Order{})
	if filters.UserID != 0 {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Preload("Items").
		Preload("Items.Product").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus persists a new status. Moving to CANCELLED returns each
// item's quantity to product stock in the same transaction.
func (r *OrdersRepository) UpdateStatus(id uint, status OrderStatus) (*Order, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if status == StatusCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
