// Package clients holds thin HTTP clients for the sibling services.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderAmounts exposes the one order fact payment creation may need: the
// amount the order expects to be paid.
type OrderAmounts interface {
	TotalAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

// OrderClient fetches order totals from the order service over HTTP.
type OrderClient struct {
	baseURL string
	client  *http.Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *OrderClient) TotalAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("order lookup failed with status %d", resp.StatusCode)
	}

	var body struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	return body.TotalAmount, nil
}
