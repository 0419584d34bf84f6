// Package processor implements the per-method payment strategies. Each
// processor wraps a Gateway with a call timeout and stamps its own
// transaction ID prefix on success.
package processor

import (
	"context"
	"strings"
	"time"

	cerrors "commerce-core/common/errors"
	"commerce-core/payment-service/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentProcessor executes a payment attempt for one payment method family.
// Process returns the transaction ID on success and sets the gateway
// reference on the payment; the caller owns all status transitions.
type PaymentProcessor interface {
	Process(ctx context.Context, payment *models.Payment) (string, error)
	Refund(ctx context.Context, payment *models.Payment) error
}

// CardProcessor handles CREDIT_CARD and DEBIT_CARD payments.
type CardProcessor struct {
	gateway Gateway
	timeout time.Duration
	logger  *zap.Logger
}

func NewCardProcessor(gateway Gateway, timeout time.Duration, logger *zap.Logger) *CardProcessor {
	return &CardProcessor{gateway: gateway, timeout: timeout, logger: logger}
}

func (p *CardProcessor) Process(ctx context.Context, payment *models.Payment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ref, err := p.gateway.Charge(ctx, ChargeRequest{
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Reference: payment.ID.String(),
	})
	if err != nil {
		return "", err
	}

	payment.PaymentIntentID = ref
	txID := "CC-" + transactionToken()
	p.logger.Info("Card charge captured",
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", txID),
	)
	return txID, nil
}

func (p *CardProcessor) Refund(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.gateway.Refund(ctx, payment.PaymentIntentID, payment.Amount)
}

// PayPalProcessor handles PAYPAL payments.
type PayPalProcessor struct {
	gateway Gateway
	timeout time.Duration
	logger  *zap.Logger
}

func NewPayPalProcessor(gateway Gateway, timeout time.Duration, logger *zap.Logger) *PayPalProcessor {
	return &PayPalProcessor{gateway: gateway, timeout: timeout, logger: logger}
}

func (p *PayPalProcessor) Process(ctx context.Context, payment *models.Payment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ref, err := p.gateway.Charge(ctx, ChargeRequest{
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Reference: payment.ID.String(),
	})
	if err != nil {
		return "", err
	}

	payment.PaymentIntentID = ref
	txID := "PP-" + transactionToken()
	p.logger.Info("PayPal capture completed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", txID),
	)
	return txID, nil
}

func (p *PayPalProcessor) Refund(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.gateway.Refund(ctx, payment.PaymentIntentID, payment.Amount)
}

// Factory routes a payment method to its processor.
type Factory struct {
	card   PaymentProcessor
	paypal PaymentProcessor
}

func NewFactory(card, paypal PaymentProcessor) *Factory {
	return &Factory{card: card, paypal: paypal}
}

// ForMethod returns the processor for the given method. Card and debit card
// share the card processor. Unknown methods are rejected as unsupported.
func (f *Factory) ForMethod(method models.PaymentMethod) (PaymentProcessor, *cerrors.Error) {
	switch method {
	case models.PaymentMethodCreditCard, models.PaymentMethodDebitCard:
		return f.card, nil
	case models.PaymentMethodPayPal:
		return f.paypal, nil
	default:
		return nil, cerrors.Unsupported("unsupported payment method: %s", method)
	}
}

func transactionToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}
