package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest is what a gateway needs to capture funds. Reference is the
// payment ID, forwarded for idempotency and tracing on the gateway side.
type ChargeRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

// Gateway abstracts the external payment provider. Charge returns the
// provider's reference for the captured payment; Refund reverses it.
// Implementations must honor ctx cancellation.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
	Refund(ctx context.Context, gatewayRef string, amount decimal.Decimal) error
}

// SimulatedGateway approves every charge after a short delay. Used in
// development when no provider credentials are configured.
type SimulatedGateway struct {
	Delay time.Duration
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ ChargeRequest) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return "sim_" + uuid.NewString(), nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, _ string, _ decimal.Decimal) error {
	return g.wait(ctx)
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
