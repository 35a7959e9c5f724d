package orders

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/app/auth"
	"github.com/vega6/storefront/models"
)

type ProductSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type Item struct {
	ID        uint           `json:"id"`
	ProductID uint           `json:"product_id"`
	Quantity  int            `json:"quantity"`
	UnitPrice string         `json:"unit_price"`
	Product   ProductSummary `json:"product"`
}

type Order struct {
	ID          uint               `json:"id"`
	UserID      uint               `json:"user_id"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount string             `json:"total_amount"`
	Items       []Item             `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type Handler struct {
	service *Service
	rates   RateProvider
	maker   *auth.TokenMaker
}

func NewHandler(service *Service, rates RateProvider, maker *auth.TokenMaker) *Handler {
	return &Handler{
		service: service,
		rates:   rates,
		maker:   maker,
	}
}

func (h *Handler) Register(r chi.Router) {
	// Same window as the original service: 5 requests per minute per
	// client on the read-heavy endpoints.
	limiter := httprate.LimitByIP(5, time.Minute)

	r.Route("/orders", func(r chi.Router) {
		r.Use(auth.Authenticate(h.maker))
		r.Use(auth.RequireRoles(models.RoleAdmin, models.RoleCustomer))

		r.Post("/", h.handleCreate)
		r.With(limiter).Get("/", h.handleList)
		r.With(limiter).Get("/exchange-rate", h.handleExchangeRate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}/status", h.handleUpdateStatus)
	})
}

func toOrder(o *models.Order) Order {
	items := make([]Item, len(o.Items))
	for i, item := range o.Items {
		items[i] = Item{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Product: ProductSummary{
				ID:    item.Product.ID,
				Name:  item.Product.Name,
				Price: item.Product.Price.StringFixed(2),
			},
		}
	}
	return Order{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func callerFromContext(r *http.Request) (Caller, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return Caller{}, false
	}
	role, _ := models.ParseRole(string(claims.Role))
	return Caller{ID: claims.UserID, Role: role}, true
}

type createOrderRequest struct {
	Items []LineItem `json:"items"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		api.WriteError(w, api.Unauthenticated("No token provided"))
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}

	order, err := h.service.PlaceOrder(caller, req.Items)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order created successfully",
		"order":   toOrder(order),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		api.WriteError(w, api.Unauthenticated("No token provided"))
		return
	}

	page, limit := 1, 10
	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil {
			page = p
		}
	}
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			limit = l
		}
	}

	result, err := h.service.ListOrders(caller, page, limit, r.URL.Query().Get("status"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	orders := make([]Order, len(result.Orders))
	for i := range result.Orders {
		orders[i] = toOrder(&result.Orders[i])
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  orders,
		"pagination": Pagination{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		api.WriteError(w, api.Unauthenticated("No token provided"))
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		api.WriteError(w, api.Validation("Invalid order id"))
		return
	}

	order, svcErr := h.service.GetOrder(caller, uint(id))
	if svcErr != nil {
		api.WriteError(w, svcErr)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   toOrder(order),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r)
	if !ok {
		api.WriteError(w, api.Unauthenticated("No token provided"))
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		api.WriteError(w, api.Validation("Invalid order id"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}

	order, svcErr := h.service.UpdateStatus(caller, uint(id), req.Status)
	if svcErr != nil {
		api.WriteError(w, svcErr)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Order status updated",
		"order":   toOrder(order),
	})
}
