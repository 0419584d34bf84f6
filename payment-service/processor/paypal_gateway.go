package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PayPalGateway captures payments through the PayPal REST API. The returned
// gateway reference is the capture ID.
type PayPalGateway struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
}

func NewPayPalGateway(baseURL, clientID, secret string) *PayPalGateway {
	return &PayPalGateway{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type paypalChargeRequest struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference_id"`
}

type paypalChargeResponse struct {
	CaptureID string `json:"capture_id"`
	Status    string `json:"status"`
}

func (g *PayPalGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	body := paypalChargeRequest{
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		Reference: req.Reference,
	}

	var resp paypalChargeResponse
	if err := g.post(ctx, "/v2/payments/captures", body, &resp); err != nil {
		return "", err
	}
	if resp.Status != "COMPLETED" {
		return "", fmt.Errorf("paypal capture not completed: %s", resp.Status)
	}
	return resp.CaptureID, nil
}

func (g *PayPalGateway) Refund(ctx context.Context, gatewayRef string, amount decimal.Decimal) error {
	body := map[string]string{"amount": amount.StringFixed(2)}
	return g.post(ctx, fmt.Sprintf("/v2/payments/captures/%s/refund", gatewayRef), body, nil)
}

func (g *PayPalGateway) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.clientID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("paypal request failed with status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
