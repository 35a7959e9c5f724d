package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/app/auth"
	"github.com/vega6/storefront/models"
)

type Product struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type ListResponse struct {
	Success    bool       `json:"success"`
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type ProductProvider interface {
	FindFiltered(offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	FindByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(id uint, fields map[string]any) (*models.Product, error)
	Delete(id uint) error
}

type Handler struct {
	repo  ProductProvider
	maker *auth.TokenMaker
}

func NewHandler(repo ProductProvider, maker *auth.TokenMaker) *Handler {
	return &Handler{
		repo:  repo,
		maker: maker,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Use(auth.Authenticate(h.maker))

		r.With(auth.RequireRoles(models.RoleAdmin, models.RoleCustomer)).Get("/", h.handleList)
		r.With(auth.RequireRoles(models.RoleAdmin, models.RoleCustomer)).Get("/{id}", h.handleGet)
		r.With(auth.RequireRoles(models.RoleAdmin)).Post("/create-product", h.handleCreate)
		r.With(auth.RequireRoles(models.RoleAdmin)).Put("/{id}", h.handleUpdate)
		r.With(auth.RequireRoles(models.RoleAdmin)).Delete("/{id}", h.handleDelete)
	})
}

func toProduct(p *models.Product) Product {
	return Product{
		ID:    p.ID,
		Name:  p.Name,
		SKU:   p.SKU,
		Price: p.Price.StringFixed(2),
		Stock: p.Stock,
	}
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p >= 1 {
			page = p
		}
	}
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil && l >= 1 {
			limit = l
		}
	}
	return page, limit
}

func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, api.Validation("Invalid product id")
	}
	return uint(id), nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	filters := models.ProductFilters{
		Name: r.URL.Query().Get("name"),
		SKU:  r.URL.Query().Get("sku"),
	}

	res, total, err := h.repo.FindFiltered((page-1)*limit, limit, filters)
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	api.WriteJSON(w, http.StatusOK, ListResponse{
		Success:  true,
		Products: products,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	product, err := h.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.WriteError(w, api.NotFound("Product not found"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": toProduct(product),
	})
}

type createRequest struct {
	Name  string           `json:"name"`
	SKU   string           `json:"sku"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}
	if req.Name == "" || req.SKU == "" || req.Price == nil || req.Stock == nil {
		api.WriteError(w, api.Validation("Name, sku, price and stock are required"))
		return
	}
	if req.Price.IsNegative() || *req.Stock < 0 {
		api.WriteError(w, api.Validation("Price and stock must not be negative"))
		return
	}

	product := &models.Product{
		Name:  req.Name,
		SKU:   req.SKU,
		Price: req.Price.Round(2),
		Stock: *req.Stock,
	}
	if err := h.repo.Create(product); err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"product": toProduct(product),
	})
}

type updateRequest struct {
	Name  *string          `json:"name"`
	SKU   *string          `json:"sku"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.SKU != nil {
		fields["sku"] = *req.SKU
	}
	if req.Price != nil {
		fields["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			api.WriteError(w, api.Validation("Stock must not be negative"))
			return
		}
		fields["stock"] = *req.Stock
	}
	if len(fields) == 0 {
		api.WriteError(w, api.Validation("No fields provided to update"))
		return
	}

	product, err := h.repo.Update(id, fields)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.WriteError(w, api.NotFound("Product not found"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": toProduct(product),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.WriteError(w, api.NotFound("Product not found"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product deleted successfully",
	})
}
