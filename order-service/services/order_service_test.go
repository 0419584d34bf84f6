package services_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"commerce-core/order-service/models"
	"commerce-core/order-service/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ---- fake repository ----

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order

	createErrs []error // popped per Create call, nil means success
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, order.ID)
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	return &cp, nil
}

func (f *fakeOrderRepo) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			cp := *order
			cp.Items = append([]models.OrderItem(nil), order.Items...)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) FindByStatus(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if order.Status == status {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindByUserIDAndStatus(_ context.Context, userID uuid.UUID, status models.OrderStatus) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID && order.Status == status {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindByCreatedAtBetween(_ context.Context, start, end time.Time) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if !order.CreatedAt.Before(start) && !order.CreatedAt.After(end) {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CountByUserIDAndStatus(_ context.Context, userID uuid.UUID, status models.OrderStatus) (int64, error) {
	orders, _ := f.FindByUserIDAndStatus(context.Background(), userID, status)
	return int64(len(orders)), nil
}

// ---- fake producer ----

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

func testPricing() models.Pricing {
	return models.Pricing{
		TaxRate:               d("0.10"),
		FlatShippingFee:       d("10.00"),
		FreeShippingThreshold: d("100.00"),
	}
}

func newService(repo *fakeOrderRepo) *services.OrderService {
	return services.NewOrderService(repo, testPricing(), newFakeProducer(), zap.NewNop())
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func createReq(userID string, lines ...services.OrderLineRequest) *services.CreateOrderRequest {
	return &services.CreateOrderRequest{
		UserID: userID,
		Items:  lines,
		ShippingAddress: models.Address{
			FullName:     "Jordan Smith",
			AddressLine1: "1 Main St",
			City:         "Springfield",
			Country:      "US",
			PostalCode:   "12345",
		},
		PaymentMethod: "CREDIT_CARD",
	}
}

func TestCreateOrder_TotalsBelowFreeShippingThreshold(t *testing.T) {
	svc := newService(newFakeOrderRepo())

	// 3 x 33.33 = 99.99 subtotal
	order, serr := svc.CreateOrder(context.Background(), createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 3, UnitPrice: d("33.33")},
	))
	assert.Nil(t, serr)

	assert.True(t, order.Subtotal.Equal(d("99.99")), "subtotal = %s", order.Subtotal)
	assert.True(t, order.TaxAmount.Equal(d("10.00")), "tax = %s", order.TaxAmount)
	assert.True(t, order.ShippingAmount.Equal(d("10.00")), "shipping = %s", order.ShippingAmount)
	assert.True(t, order.TotalAmount.Equal(d("119.99")), "total = %s", order.TotalAmount)
}

func TestCreateOrder_TotalsAboveFreeShippingThreshold(t *testing.T) {
	svc := newService(newFakeOrderRepo())

	order, serr := svc.CreateOrder(context.Background(), createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 2, UnitPrice: d("75.00")},
	))
	assert.Nil(t, serr)

	assert.True(t, order.Subtotal.Equal(d("150.00")))
	assert.True(t, order.TaxAmount.Equal(d("15.00")))
	assert.True(t, order.ShippingAmount.IsZero())
	assert.True(t, order.TotalAmount.Equal(d("165.00")))
}

func TestCreateOrder_OrderNumberFormat(t *testing.T) {
	svc := newService(newFakeOrderRepo())

	order, serr := svc.CreateOrder(context.Background(), createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))
	assert.Nil(t, serr)
	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-F]{8}$`), order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.ShippedAt)
	assert.Nil(t, order.DeliveredAt)
}

func TestCreateOrder_RetriesOnOrderNumberCollision(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.createErrs = []error{gorm.ErrDuplicatedKey, nil}
	svc := newService(repo)

	order, serr := svc.CreateOrder(context.Background(), createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))
	assert.Nil(t, serr)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	_, serr := svc.CreateOrder(ctx, createReq(uuid.NewString()))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)

	_, serr = svc.CreateOrder(ctx, createReq("not-a-uuid",
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)

	_, serr = svc.CreateOrder(ctx, createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 0, UnitPrice: d("5.00")},
	))
	assert.NotNil(t, serr)
	assert.Equal(t, 400, serr.Code)
}

func TestCreateOrder_SnapshotIsImmutable(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newService(repo)
	ctx := context.Background()

	req := createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", ProductName: "Widget", Quantity: 2, UnitPrice: d("10.00")},
	)
	order, serr := svc.CreateOrder(ctx, req)
	assert.Nil(t, serr)

	// mutating the request after creation must not affect the stored order
	req.Items[0].Quantity = 99

	reread, serr := svc.GetOrderByOrderNumber(ctx, order.OrderNumber)
	assert.Nil(t, serr)
	assert.Len(t, reread.Items, 1)
	assert.Equal(t, 2, reread.Items[0].Quantity)
	assert.True(t, reread.TotalAmount.Equal(order.TotalAmount))
	assert.Equal(t, models.OrderStatusPending, reread.Status)
	assert.Nil(t, reread.ShippedAt)
	assert.Nil(t, reread.DeliveredAt)
}

func TestUpdateOrderStatus_StampsTimestamps(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))

	shipped, serr := svc.UpdateOrderStatus(ctx, order.ID, models.OrderStatusShipped)
	assert.Nil(t, serr)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)
	assert.Nil(t, shipped.DeliveredAt)

	delivered, serr := svc.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	assert.Nil(t, serr)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestUpdateShippingInfo_ForcesShipped(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))

	updated, serr := svc.UpdateShippingInfo(ctx, order.ID, "TRK-123")
	assert.Nil(t, serr)
	assert.Equal(t, "TRK-123", updated.TrackingNumber)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.NotNil(t, updated.ShippedAt)
}

func TestRecordPayment_MovesOrderToPaid(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))

	paid, serr := svc.RecordPayment(ctx, order.ID, "CC-ABCD1234")
	assert.Nil(t, serr)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.Equal(t, "CC-ABCD1234", paid.PaymentDetails.TransactionID)
	assert.Equal(t, "COMPLETED", paid.PaymentDetails.PaymentStatus)
	assert.NotNil(t, paid.PaymentDetails.PaymentDate)
}

func TestLookups_MissingOrderIsNotFound(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	_, serr := svc.GetOrderByID(ctx, uuid.New())
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)

	_, serr = svc.GetOrderByOrderNumber(ctx, "ORD-FFFFFFFF")
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)

	_, serr = svc.GetOrderByIDAndUserID(ctx, uuid.New(), uuid.New())
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)
}

func TestGetOrderByIDAndUserID_ScopesOwnership(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	owner := uuid.New()
	order, _ := svc.CreateOrder(ctx, createReq(owner.String(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))

	found, serr := svc.GetOrderByIDAndUserID(ctx, order.ID, owner)
	assert.Nil(t, serr)
	assert.Equal(t, order.ID, found.ID)

	_, serr = svc.GetOrderByIDAndUserID(ctx, order.ID, uuid.New())
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)
}

func TestDeleteOrder_RemovesOrder(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, createReq(uuid.NewString(),
		services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
	))

	serr := svc.DeleteOrder(ctx, order.ID)
	assert.Nil(t, serr)

	_, serr = svc.GetOrderByID(ctx, order.ID)
	assert.NotNil(t, serr)
	assert.Equal(t, 404, serr.Code)
}

func TestGetOrdersBetweenDates(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, serr := svc.CreateOrder(ctx, createReq(uuid.NewString(),
			services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
		))
		assert.Nil(t, serr)
	}

	now := time.Now()

	orders, serr := svc.GetOrdersBetweenDates(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	assert.Nil(t, serr)
	assert.Len(t, orders, 3)

	// a range before any order exists is empty, not an error
	orders, serr = svc.GetOrdersBetweenDates(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	assert.Nil(t, serr)
	assert.Empty(t, orders)
}

func TestGetOrdersByUserID_PaginationMeta(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	user := uuid.New()
	for i := 0; i < 3; i++ {
		_, serr := svc.CreateOrder(ctx, createReq(user.String(),
			services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
		))
		assert.Nil(t, serr)
	}

	// 3 orders at limit 2: first page is full and has more
	page, serr := svc.GetOrdersByUserID(ctx, user, 1, 2)
	assert.Nil(t, serr)
	assert.Equal(t, int64(3), page.Meta.TotalOrders)
	assert.Equal(t, int64(2), page.Meta.TotalPages)
	assert.True(t, page.Meta.HasMore)

	// the partial last page has no more
	page, serr = svc.GetOrdersByUserID(ctx, user, 2, 2)
	assert.Nil(t, serr)
	assert.Equal(t, int64(2), page.Meta.TotalPages)
	assert.False(t, page.Meta.HasMore)
}

func TestCountOrdersByUserIDAndStatus(t *testing.T) {
	svc := newService(newFakeOrderRepo())
	ctx := context.Background()

	user := uuid.New()
	for i := 0; i < 3; i++ {
		_, serr := svc.CreateOrder(ctx, createReq(user.String(),
			services.OrderLineRequest{ProductID: "p1", Quantity: 1, UnitPrice: d("5.00")},
		))
		assert.Nil(t, serr)
	}

	count, serr := svc.CountOrdersByUserIDAndStatus(ctx, user, models.OrderStatusPending)
	assert.Nil(t, serr)
	assert.Equal(t, int64(3), count)

	count, serr = svc.CountOrdersByUserIDAndStatus(ctx, user, models.OrderStatusPaid)
	assert.Nil(t, serr)
	assert.Equal(t, int64(0), count)
}
