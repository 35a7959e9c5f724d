package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vega6/storefront/app/api"
)

// RateProvider resolves a currency conversion rate.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// HTTPRateProvider fetches live rates from exchangerate-api.com.
type HTTPRateProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRateProvider() *HTTPRateProvider {
	return &HTTPRateProvider{
		BaseURL: "https://api.exchangerate-api.com/v4/latest",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPRateProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", p.BaseURL, from), nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate lookup for %s returned status %d", from, resp.StatusCode)
	}

	var body struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	rate, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate from %s to %s", from, to)
	}
	return rate, nil
}

func (h *Handler) handleExchangeRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil || !amount.IsPositive() {
		api.WriteError(w, api.Validation("Valid amount is required"))
		return
	}

	from := q.Get("from")
	if from == "" {
		from = "INR"
	}
	to := q.Get("to")
	if to == "" {
		to = "USD"
	}

	rate, err := h.rates.Rate(r.Context(), from, to)
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"from":      from,
		"to":        to,
		"amount":    amount.StringFixed(2),
		"converted": amount.Mul(rate).Round(2).StringFixed(2),
		"rate":      rate,
	})
}
