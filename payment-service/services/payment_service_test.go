package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"commerce-core/payment-service/models"
	"commerce-core/payment-service/processor"
	"commerce-core/payment-service/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ---- fakes ----

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (f *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Update(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Delete(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payments, p.ID)
	return nil
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Payment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePaymentRepo) FindByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByUserIDAndStatus(_ context.Context, userID uuid.UUID, status models.PaymentStatus) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.UserID == userID && p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByCreatedAtBetween(_ context.Context, start, end time.Time) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if !p.CreatedAt.Before(start) && !p.CreatedAt.After(end) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.PaymentIntentID == paymentIntentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeProducer struct {
	mu        sync.Mutex
	published map[string][]interface{}
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{published: make(map[string][]interface{})}
}

func (f *fakeProducer) Publish(_ context.Context, topic, _ string, event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[topic] = append(f.published[topic], event)
	return nil
}

func (f *fakeProducer) count(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[topic])
}

// scriptedGateway fails charges while chargeErr is set.
type scriptedGateway struct {
	chargeErr error
	refundErr error
	charges   int
	refunds   int
}

func (g *scriptedGateway) Charge(_ context.Context, _ processor.ChargeRequest) (string, error) {
	g.charges++
	if g.chargeErr != nil {
		return "", g.chargeErr
	}
	return "gw_" + uuid.NewString(), nil
}

func (g *scriptedGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) error {
	g.refunds++
	return g.refundErr
}

type fakeOrderAmounts struct {
	total decimal.Decimal
}

func (f *fakeOrderAmounts) TotalAmount(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return f.total, nil
}

// ---- helpers ----

type fixture struct {
	svc      *services.PaymentService
	repo     *fakePaymentRepo
	producer *fakeProducer
	gateway  *scriptedGateway
}

func newFixture(opts ...func(*fixtureConfig)) *fixture {
	cfg := &fixtureConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	repo := newFakePaymentRepo()
	producer := newFakeProducer()
	gateway := &scriptedGateway{chargeErr: cfg.chargeErr, refundErr: cfg.refundErr}

	logger := zap.NewNop()
	factory := processor.NewFactory(
		processor.NewCardProcessor(gateway, time.Second, logger),
		processor.NewPayPalProcessor(gateway, time.Second, logger),
	)

	svc := services.NewPaymentService(repo, factory, cfg.orders, producer, "usd", cfg.orders != nil, logger)
	return &fixture{svc: svc, repo: repo, producer: producer, gateway: gateway}
}

type fixtureConfig struct {
	chargeErr error
	refundErr error
	orders    *fakeOrderAmounts
}

func withChargeError(err error) func(*fixtureConfig) {
	return func(c *fixtureConfig) { c.chargeErr = err }
}

func withOrderTotal(total decimal.Decimal) func(*fixtureConfig) {
	return func(c *fixtureConfig) { c.orders = &fakeOrderAmounts{total: total} }
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func createReq(method string, amount decimal.Decimal) *services.CreatePaymentRequest {
	return &services.CreatePaymentRequest{
		OrderID:       uuid.NewString(),
		UserID:        uuid.NewString(),
		Amount:        amount,
		PaymentMethod: method,
	}
}

// ---- tests ----

func TestCreatePayment_StartsPending(t *testing.T) {
	fx := newFixture()

	payment, serr := fx.svc.CreatePayment(context.Background(), createReq("CREDIT_CARD", d("119.99")))
	assert.Nil(t, serr)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Empty(t, payment.TransactionID)
	assert.Nil(t, payment.CompletedAt)
	assert.Equal(t, "usd", payment.Currency)
}

func TestCreatePayment_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, serr := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("0")))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)

	_, serr = fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("-5.00")))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)

	req := createReq("CREDIT_CARD", d("10.00"))
	req.OrderID = "not-a-uuid"
	_, serr = fx.svc.CreatePayment(ctx, req)
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)
}

func TestCreatePayment_UnsupportedMethod(t *testing.T) {
	fx := newFixture()

	_, serr := fx.svc.CreatePayment(context.Background(), createReq("BANK_TRANSFER", d("10.00")))
	assert.NotNil(t, serr)
	assert.Equal(t, 422, serr.Code)
}

func TestCreatePayment_AmountMustMatchOrderTotal(t *testing.T) {
	fx := newFixture(withOrderTotal(d("119.99")))
	ctx := context.Background()

	_, serr := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("100.00")))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)

	payment, serr := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("119.99")))
	assert.Nil(t, serr)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestProcessPayment_CardSuccess(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("119.99")))

	processed, serr := fx.svc.ProcessPayment(ctx, payment.ID)
	assert.Nil(t, serr)
	assert.Equal(t, models.PaymentStatusCompleted, processed.Status)
	assert.True(t, strings.HasPrefix(processed.TransactionID, "CC-"))
	assert.NotEmpty(t, processed.PaymentIntentID)
	assert.NotNil(t, processed.CompletedAt)
	assert.Empty(t, processed.ErrorMessage)
	assert.Equal(t, 1, fx.producer.count("payment-processed"))
}

func TestProcessPayment_PayPalTransactionPrefix(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("PAYPAL", d("50.00")))

	processed, serr := fx.svc.ProcessPayment(ctx, payment.ID)
	assert.Nil(t, serr)
	assert.True(t, strings.HasPrefix(processed.TransactionID, "PP-"))
}

func TestProcessPayment_OnlyFromPending(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("10.00")))
	_, serr := fx.svc.ProcessPayment(ctx, payment.ID)
	assert.Nil(t, serr)

	// already COMPLETED, a second process attempt is rejected unchanged
	_, serr = fx.svc.ProcessPayment(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 409, serr.Code)

	stored, _ := fx.repo.FindByID(ctx, payment.ID)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	assert.Equal(t, 1, fx.gateway.charges)
}

func TestProcessPayment_GatewayFailure(t *testing.T) {
	fx := newFixture(withChargeError(errors.New("card declined")))
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("10.00")))

	_, serr := fx.svc.ProcessPayment(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 502, serr.Code)

	stored, _ := fx.repo.FindByID(ctx, payment.ID)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "card declined", stored.ErrorMessage)
	assert.Empty(t, stored.TransactionID)
	assert.Equal(t, 1, fx.producer.count("payment-processed"))

	// a failed payment has nothing to refund
	_, serr = fx.svc.RefundPayment(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 409, serr.Code)
}

func TestRefundPayment_OnlyFromCompleted(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("25.00")))

	// PENDING payments cannot be refunded
	_, serr := fx.svc.RefundPayment(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 409, serr.Code)

	_, serr = fx.svc.ProcessPayment(ctx, payment.ID)
	assert.Nil(t, serr)

	refunded, serr := fx.svc.RefundPayment(ctx, payment.ID)
	assert.Nil(t, serr)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.Equal(t, 1, fx.gateway.refunds)

	// a second refund attempt is rejected
	_, serr = fx.svc.RefundPayment(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 409, serr.Code)
	assert.Equal(t, 1, fx.gateway.refunds)
}

func TestUpdatePaymentStatus_StampsCompletedAt(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("10.00")))

	updated, serr := fx.svc.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusCompleted)
	assert.Nil(t, serr)
	assert.Equal(t, models.PaymentStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestGetPayment_MissingIsNotFound(t *testing.T) {
	fx := newFixture()

	_, serr := fx.svc.GetPaymentByID(context.Background(), uuid.New())
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)
}

func TestGetPaymentsByOrderID_ReturnsAllAttempts(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	orderID := uuid.NewString()
	for i := 0; i < 2; i++ {
		req := createReq("CREDIT_CARD", d("10.00"))
		req.OrderID = orderID
		_, serr := fx.svc.CreatePayment(ctx, req)
		assert.Nil(t, serr)
	}

	payments, serr := fx.svc.GetPaymentsByOrderID(ctx, uuid.MustParse(orderID))
	assert.Nil(t, serr)
	assert.Len(t, payments, 2)
}

func TestGetPaymentsBetweenDates(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, serr := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("10.00")))
		assert.Nil(t, serr)
	}

	now := time.Now()

	payments, serr := fx.svc.GetPaymentsBetweenDates(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	assert.Nil(t, serr)
	assert.Len(t, payments, 3)

	// a range before any payment exists is empty, not an error
	payments, serr = fx.svc.GetPaymentsBetweenDates(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	assert.Nil(t, serr)
	assert.Empty(t, payments)
}

func TestGetPaymentsByUserID_PaginationMeta(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	userID := uuid.NewString()
	for i := 0; i < 3; i++ {
		req := createReq("CREDIT_CARD", d("10.00"))
		req.UserID = userID
		_, serr := fx.svc.CreatePayment(ctx, req)
		assert.Nil(t, serr)
	}

	// 3 payments at limit 2: first page is full and has more
	page, serr := fx.svc.GetPaymentsByUserID(ctx, uuid.MustParse(userID), 1, 2)
	assert.Nil(t, serr)
	assert.Equal(t, int64(3), page.Meta.TotalPayments)
	assert.Equal(t, int64(2), page.Meta.TotalPages)
	assert.True(t, page.Meta.HasMore)

	// the partial last page has no more
	page, serr = fx.svc.GetPaymentsByUserID(ctx, uuid.MustParse(userID), 2, 2)
	assert.Nil(t, serr)
	assert.Equal(t, int64(2), page.Meta.TotalPages)
	assert.False(t, page.Meta.HasMore)
}

func TestDeletePayment_RemovesRecord(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	payment, _ := fx.svc.CreatePayment(ctx, createReq("CREDIT_CARD", d("10.00")))

	serr := fx.svc.DeletePayment(ctx, payment.ID)
	assert.Nil(t, serr)

	_, serr = fx.svc.GetPaymentByID(ctx, payment.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)
}
