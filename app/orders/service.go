package orders

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/models"
)

// Caller is the authenticated identity an operation runs as.
type Caller struct {
	ID   uint
	Role models.Role
}

// LineItem is one already-decoded {productId, quantity} pair from an
// order request.
type LineItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// CatalogStore is the read-only product lookup the workflow validates
// against.
type CatalogStore interface {
	FindByID(id uint) (*models.Product, error)
}

// OrderStore is the persistence boundary. CreateWithItems must be a
// single transactional operation: the order and all of its items, or
// nothing.
type OrderStore interface {
	CreateWithItems(order *models.Order, items []models.OrderItem) (*models.Order, error)
	FindByID(id uint) (*models.Order, error)
	FindFiltered(offset, limit int, filters models.OrderFilters) ([]models.Order, int64, error)
	UpdateStatus(id uint, status models.OrderStatus) (*models.Order, error)
}

// Service carries out the order workflow: validation against the
// catalog, total computation, atomic persistence, and role-gated status
// transitions.
type Service struct {
	catalog CatalogStore
	orders  OrderStore
}

func NewService(catalog CatalogStore, orders OrderStore) *Service {
	return &Service{catalog: catalog, orders: orders}
}

// PlaceOrder validates the submitted line items in order, fail-fast on
// the first violation, then persists the order atomically. Validation
// performs reads only; nothing is written until every item has passed.
func (s *Service) PlaceOrder(caller Caller, items []LineItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, api.Validation("Order must contain at least one item")
	}

	totalAmount := decimal.Zero
	validated := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		if item.ProductID == 0 || item.Quantity == 0 {
			return nil, api.Validation("Each item must have productId and quantity")
		}

		product, err := s.catalog.FindByID(item.ProductID)
		if err != nil {
			if errors.Is(err, models.ErrProductNotFound) {
				return nil, api.NotFound("Product with ID %d not found", item.ProductID)
			}
			return nil, api.Internal(err)
		}

		if item.Quantity < 0 {
			return nil, api.Validation("Quantity must be greater than 0")
		}
		if item.Quantity > product.Stock {
			return nil, api.Validation("Only %d quantity left in stock for %s", product.Stock, product.Name)
		}

		itemTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totalAmount = totalAmount.Add(itemTotal)

		validated = append(validated, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &models.Order{
		UserID:      caller.ID,
		Status:      models.StatusPending,
		TotalAmount: totalAmount.Round(2),
	}

	created, err := s.orders.CreateWithItems(order, validated)
	if err != nil {
		// A concurrent order can win the stock between validation and
		// the guarded decrement.
		if errors.Is(err, models.ErrInsufficientStock) {
			return nil, api.Validation("Not enough stock to fulfil the order")
		}
		return nil, api.Internal(err)
	}
	return created, nil
}

// ListResult is one page of orders with its pagination envelope.
type ListResult struct {
	Orders     []models.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListOrders returns orders most recent first. Customers only ever see
// their own.
func (s *Service) ListOrders(caller Caller, page, limit int, status string) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filters := models.OrderFilters{}
	if caller.Role == models.RoleCustomer {
		filters.UserID = caller.ID
	}
	if status != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, api.Validation("Status must be one of: %s", strings.Join(statusNames(), ", "))
		}
		filters.Status = parsed
	}

	orders, total, err := s.orders.FindFiltered((page-1)*limit, limit, filters)
	if err != nil {
		return nil, api.Internal(err)
	}

	return &ListResult{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetOrder returns one order. Customers may only read orders they own.
func (s *Service) GetOrder(caller Caller, id uint) (*models.Order, error) {
	order, err := s.orders.FindByID(id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, api.NotFound("Order not found")
		}
		return nil, api.Internal(err)
	}

	if caller.Role == models.RoleCustomer && order.UserID != caller.ID {
		return nil, api.Forbidden("You are not authorized to view this order")
	}
	return order, nil
}

// UpdateStatus moves an order along the status state machine. Customers
// may only cancel their own orders; admins may request any target, but
// every transition must still be legal from the order's current status.
func (s *Service) UpdateStatus(caller Caller, id uint, status string) (*models.Order, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, api.Validation("Status must be one of: %s", strings.Join(statusNames(), ", "))
	}

	order, err := s.orders.FindByID(id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, api.NotFound("Order not found")
		}
		return nil, api.Internal(err)
	}

	if caller.Role == models.RoleCustomer {
		if order.UserID != caller.ID {
			return nil, api.Forbidden("Unauthorized")
		}
		if target != models.StatusCancelled {
			return nil, api.Forbidden("Customers can only cancel orders")
		}
	}

	if !models.CanTransition(order.Status, target) {
		return nil, api.Validation("Cannot change order status from %s to %s", order.Status, target)
	}

	updated, err := s.orders.UpdateStatus(id, target)
	if err != nil {
		return nil, api.Internal(err)
	}
	return updated, nil
}

func statusNames() []string {
	return []string{
		string(models.StatusPending),
		string(models.StatusPaid),
		string(models.StatusCancelled),
	}
}
