package services

import (
	"context"
	"errors"
	"strings"
	"time"

	cerrors "commerce-core/common/errors"
	"commerce-core/common/lock"
	"commerce-core/order-service/models"
	"commerce-core/order-service/repository"
	"commerce-core/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderLineRequest is one line of a checkout, copied verbatim into the order.
type OrderLineRequest struct {
	ProductID   string          `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest carries everything needed to snapshot a cart into an order.
type CreateOrderRequest struct {
	UserID          string             `json:"user_id" binding:"required"`
	Items           []OrderLineRequest `json:"items" binding:"required,dive"`
	ShippingAddress models.Address     `json:"shipping_address"`
	BillingAddress  models.Address     `json:"billing_address"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
}

// OrderPage is a page of orders plus pagination metadata.
type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService owns the order lifecycle: creation with computed totals, the
// status state machine, and the query surface. Mutations hold the per-order
// lock so concurrent updates to the same order are serialized.
type OrderService struct {
	repo     repository.OrderRepository
	pricing  models.Pricing
	producer events.ProducerAPI
	locks    *lock.KeyedMutex
	logger   *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, pricing models.Pricing, producer events.ProducerAPI, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		pricing:  pricing,
		producer: producer,
		locks:    lock.NewKeyedMutex(),
		logger:   logger,
	}
}

// Collisions on the 8-char order number are possible, just rare; the unique
// index catches them and we retry with a fresh number.
const orderNumberAttempts = 3

// CreateOrder builds a PENDING order from the checkout request, computes
// totals, and persists it. Line items are copied; later cart mutations do not
// affect the created order.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, *cerrors.Error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, cerrors.Validation("invalid user ID format")
	}
	if len(req.Items) == 0 {
		return nil, cerrors.Validation("at least one item is required")
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, cerrors.Validation("quantity must be at least 1 for product %s", line.ProductID)
		}
		if line.UnitPrice.IsNegative() {
			return nil, cerrors.Validation("unit price must not be negative for product %s", line.ProductID)
		}
	}

	order := &models.Order{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Status:          models.OrderStatusPending,
		Notes:           req.Notes,
		PaymentDetails: models.PaymentDetails{
			PaymentMethod: req.PaymentMethod,
		},
	}

	for _, line := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	order.CalculateTotals(s.pricing)
	order.PaymentDetails.Amount = order.TotalAmount

	for attempt := 0; ; attempt++ {
		order.OrderNumber = generateOrderNumber()
		err := s.repo.Create(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < orderNumberAttempts-1 {
			s.logger.Warn("Order number collision, retrying", zap.String("order_number", order.OrderNumber))
			continue
		}
		return nil, cerrors.Internal(err, "failed to create order")
	}

	s.logger.Info("Created order",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", req.UserID),
	)

	s.publishOrderCreated(ctx, order)
	return order, nil
}

// GetOrderByID returns the order or a NotFound error carrying the identifier.
func (s *OrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, *cerrors.Error) {
	return s.findByID(ctx, id)
}

// GetOrderByIDAndUserID is the ownership-scoped lookup.
func (s *OrderService) GetOrderByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, *cerrors.Error) {
	order, err := s.repo.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Order not found with ID: %s for user: %s", id, userID)
		}
		return nil, cerrors.Internal(err, "failed to fetch order")
	}
	return order, nil
}

func (s *OrderService) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, *cerrors.Error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Order not found with order number: %s", orderNumber)
		}
		return nil, cerrors.Internal(err, "failed to fetch order")
	}
	return order, nil
}

// GetOrdersByUserID retrieves a page of the user's orders, newest first.
func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderPage, *cerrors.Error) {
	orders, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch orders")
	}

	return &OrderPage{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func (s *OrderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, *cerrors.Error) {
	orders, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch orders")
	}
	return orders, nil
}

func (s *OrderService) GetOrdersByUserIDAndStatus(ctx context.Context, userID uuid.UUID, status models.OrderStatus) ([]models.Order, *cerrors.Error) {
	orders, err := s.repo.FindByUserIDAndStatus(ctx, userID, status)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch orders")
	}
	return orders, nil
}

func (s *OrderService) GetOrdersBetweenDates(ctx context.Context, start, end time.Time) ([]models.Order, *cerrors.Error) {
	orders, err := s.repo.FindByCreatedAtBetween(ctx, start, end)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch orders")
	}
	return orders, nil
}

func (s *OrderService) CountOrdersByUserIDAndStatus(ctx context.Context, userID uuid.UUID, status models.OrderStatus) (int64, *cerrors.Error) {
	count, err := s.repo.CountByUserIDAndStatus(ctx, userID, status)
	if err != nil {
		return 0, cerrors.Internal(err, "failed to count orders")
	}
	return count, nil
}

// UpdateOrderStatus sets the status and stamps shippedAt/deliveredAt when the
// new status is SHIPPED/DELIVERED. No other side effects.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, *cerrors.Error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	order, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}

	order.Status = status
	now := time.Now()
	switch status {
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, cerrors.Internal(err, "failed to update order")
	}

	s.logger.Info("Updated order status",
		zap.String("order_id", id.String()),
		zap.String("status", string(status)),
	)

	s.publishStatusChanged(ctx, order)
	return order, nil
}

// UpdateShippingInfo records the tracking number and forces the order to SHIPPED.
func (s *OrderService) UpdateShippingInfo(ctx context.Context, id uuid.UUID, trackingNumber string) (*models.Order, *cerrors.Error) {
	if trackingNumber == "" {
		return nil, cerrors.Validation("tracking number is required")
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	order, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}

	now := time.Now()
	order.TrackingNumber = trackingNumber
	order.Status = models.OrderStatusShipped
	order.ShippedAt = &now

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, cerrors.Internal(err, "failed to update order")
	}

	s.logger.Info("Updated shipping info",
		zap.String("order_id", id.String()),
		zap.String("tracking_number", trackingNumber),
	)

	s.publishStatusChanged(ctx, order)
	return order, nil
}

// RecordPayment stores the payment outcome on the order snapshot and moves the
// order to PAID. The caller (payment flow orchestration) invokes this after a
// successful payment.
func (s *OrderService) RecordPayment(ctx context.Context, id uuid.UUID, transactionID string) (*models.Order, *cerrors.Error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	order, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}

	now := time.Now()
	order.PaymentDetails.TransactionID = transactionID
	order.PaymentDetails.PaymentStatus = "COMPLETED"
	order.PaymentDetails.PaymentDate = &now
	order.Status = models.OrderStatusPaid

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, cerrors.Internal(err, "failed to update order")
	}

	s.logger.Info("Recorded payment",
		zap.String("order_id", id.String()),
		zap.String("transaction_id", transactionID),
	)

	s.publishStatusChanged(ctx, order)
	return order, nil
}

// MarkDelivered sets status DELIVERED and stamps deliveredAt.
func (s *OrderService) MarkDelivered(ctx context.Context, id uuid.UUID) (*models.Order, *cerrors.Error) {
	return s.UpdateOrderStatus(ctx, id, models.OrderStatusDelivered)
}

// DeleteOrder hard-deletes the order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) *cerrors.Error {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	order, serr := s.findByID(ctx, id)
	if serr != nil {
		return serr
	}

	if err := s.repo.Delete(ctx, order); err != nil {
		return cerrors.Internal(err, "failed to delete order")
	}

	s.logger.Info("Deleted order", zap.String("order_id", id.String()))
	return nil
}

func (s *OrderService) findByID(ctx context.Context, id uuid.UUID) (*models.Order, *cerrors.Error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Order not found with ID: %s", id)
		}
		return nil, cerrors.Internal(err, "failed to fetch order")
	}
	return order, nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	evt := events.OrderCreatedEvent{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		evt.Items = append(evt.Items, events.OrderItemEvent{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.Subtotal,
		})
	}
	if err := s.producer.Publish(ctx, events.TopicOrderCreated, order.ID.String(), evt); err != nil {
		s.logger.Warn("Failed to publish order-created event", zap.Error(err))
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *models.Order) {
	evt := events.OrderStatusChangedEvent{
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Status:    string(order.Status),
		Timestamp: time.Now(),
	}
	if err := s.producer.Publish(ctx, events.TopicOrderStatusChanged, order.ID.String(), evt); err != nil {
		s.logger.Warn("Failed to publish order-status-changed event", zap.Error(err))
	}
}

func generateOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
