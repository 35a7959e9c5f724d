package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vega6/storefront/app/auth"
	"github.com/vega6/storefront/models"
)

type MockRates struct {
	Value decimal.Decimal
	Err   error
}

func (m *MockRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	return m.Value, nil
}

type testEnv struct {
	router *chi.Mux
	maker  *auth.TokenMaker
	store  *MockOrderStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	maker := auth.NewTokenMaker("test-secret")
	store := NewMockOrderStore()
	svc := NewService(newTestCatalog(), store)

	r := chi.NewRouter()
	NewHandler(svc, &MockRates{Value: decimal.RequireFromString("0.012")}, maker).Register(r)
	return &testEnv{router: r, maker: maker, store: store}
}

func (e *testEnv) token(t *testing.T, id uint, role models.Role) string {
	t.Helper()
	token, err := e.maker.CreateToken(&models.User{
		ID:       id,
		Username: "tester",
		Email:    "tester@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Run("creates order with computed total", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.token(t, 7, models.RoleCustomer)

		rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
			"items": []map[string]any{{"productId": 1, "quantity": 2}},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])

		order := body["order"].(map[string]any)
		assert.Equal(t, "159998.00", order["total_amount"])
		assert.Equal(t, "PENDING", order["status"])

		items := order["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, "79999.00", item["unit_price"])
		assert.Equal(t, float64(2), item["quantity"])

		product := item["product"].(map[string]any)
		assert.Equal(t, "iPhone 15", product["name"])
	})

	t.Run("zero quantity is rejected before any write", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.token(t, 7, models.RoleCustomer)

		rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
			"items": []map[string]any{{"productId": 1, "quantity": 0}},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, env.store.Orders)
	})

	t.Run("unknown product yields 404 and no order", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.token(t, 7, models.RoleCustomer)

		rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
			"items": []map[string]any{{"productId": 99, "quantity": 1}},
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["message"], "99")
		assert.Empty(t, env.store.Orders)
	})

	t.Run("missing token yields 401", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/orders", "", map[string]any{
			"items": []map[string]any{{"productId": 1, "quantity": 1}},
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListOrdersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.token(t, 7, models.RoleCustomer)
	otherToken := env.token(t, 8, models.RoleCustomer)

	rec := env.do(t, http.MethodPost, "/orders", ownerToken, map[string]any{
		"items": []map[string]any{{"productId": 2, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("owner sees the order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders?page=1&limit=10", ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["orders"].([]any), 1)

		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(1), pagination["total"])
		assert.Equal(t, float64(1), pagination["page"])
		assert.Equal(t, float64(10), pagination["limit"])
		assert.Equal(t, float64(1), pagination["totalPages"])
	})

	t.Run("another customer sees nothing", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders", otherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Empty(t, body["orders"])
	})
}

func TestGetOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.token(t, 7, models.RoleCustomer)
	otherToken := env.token(t, 8, models.RoleCustomer)

	rec := env.do(t, http.MethodPost, "/orders", ownerToken, map[string]any{
		"items": []map[string]any{{"productId": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("unknown id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/999", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-owner customer is forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/1", otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner reads order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/1", ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		order := body["order"].(map[string]any)
		assert.Equal(t, float64(1), order["id"])
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	customerToken := env.token(t, 7, models.RoleCustomer)
	adminToken := env.token(t, 1, models.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/orders", customerToken, map[string]any{
		"items": []map[string]any{{"productId": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("customer cannot mark own order paid", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/orders/1/status", customerToken, map[string]any{"status": "PAID"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Contains(t, body["message"], "Customers can only cancel")
	})

	t.Run("invalid status yields 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/orders/1/status", adminToken, map[string]any{"status": "SHIPPED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("admin marks order paid", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/orders/1/status", adminToken, map[string]any{"status": "PAID"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		order := body["order"].(map[string]any)
		assert.Equal(t, "PAID", order["status"])
	})
}

func TestExchangeRateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 7, models.RoleCustomer)

	t.Run("converts with live rate", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/exchange-rate?amount=1000", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "INR", body["from"])
		assert.Equal(t, "USD", body["to"])
		assert.Equal(t, "12.00", body["converted"])
	})

	t.Run("missing amount is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/exchange-rate", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders/exchange-rate?amount=-5", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
