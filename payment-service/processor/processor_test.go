package processor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"commerce-core/payment-service/models"
	"commerce-core/payment-service/processor"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newPayment(method models.PaymentMethod) *models.Payment {
	return &models.Payment{
		ID:            uuid.New(),
		OrderID:       uuid.New(),
		UserID:        uuid.New(),
		Amount:        decimal.NewFromFloat(19.99),
		Currency:      "usd",
		PaymentMethod: method,
		Status:        models.PaymentStatusPending,
	}
}

func TestFactory_RoutesByMethod(t *testing.T) {
	gateway := &processor.SimulatedGateway{}
	card := processor.NewCardProcessor(gateway, time.Second, zap.NewNop())
	paypal := processor.NewPayPalProcessor(gateway, time.Second, zap.NewNop())
	factory := processor.NewFactory(card, paypal)

	got, serr := factory.ForMethod(models.PaymentMethodCreditCard)
	assert.Nil(t, serr)
	assert.Same(t, card, got.(*processor.CardProcessor))

	got, serr = factory.ForMethod(models.PaymentMethodDebitCard)
	assert.Nil(t, serr)
	assert.Same(t, card, got.(*processor.CardProcessor))

	got, serr = factory.ForMethod(models.PaymentMethodPayPal)
	assert.Nil(t, serr)
	assert.Same(t, paypal, got.(*processor.PayPalProcessor))

	_, serr = factory.ForMethod(models.PaymentMethod("CRYPTO"))
	assert.NotNil(t, serr)
	assert.Equal(t, 422, serr.Code)
}

func TestCardProcessor_TransactionIDFormat(t *testing.T) {
	card := processor.NewCardProcessor(&processor.SimulatedGateway{}, time.Second, zap.NewNop())

	payment := newPayment(models.PaymentMethodCreditCard)
	txID, err := card.Process(context.Background(), payment)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(txID, "CC-"))
	assert.Len(t, txID, len("CC-")+12)
	assert.NotEmpty(t, payment.PaymentIntentID)
}

func TestPayPalProcessor_TransactionIDFormat(t *testing.T) {
	paypal := processor.NewPayPalProcessor(&processor.SimulatedGateway{}, time.Second, zap.NewNop())

	payment := newPayment(models.PaymentMethodPayPal)
	txID, err := paypal.Process(context.Background(), payment)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(txID, "PP-"))
}

func TestProcessor_GatewayTimeout(t *testing.T) {
	// gateway delay exceeds the processor timeout, the charge must fail
	slow := &processor.SimulatedGateway{Delay: time.Second}
	card := processor.NewCardProcessor(slow, 10*time.Millisecond, zap.NewNop())

	payment := newPayment(models.PaymentMethodCreditCard)
	_, err := card.Process(context.Background(), payment)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, payment.PaymentIntentID)
}
