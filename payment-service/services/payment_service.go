package services

import (
	"context"
	"errors"
	"time"

	cerrors "commerce-core/common/errors"
	"commerce-core/common/lock"
	"commerce-core/payment-service/clients"
	"commerce-core/payment-service/models"
	"commerce-core/payment-service/processor"
	"commerce-core/payment-service/repository"
	"commerce-core/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePaymentRequest registers a payment intent against an order. Nothing is
// charged until the payment is processed.
type CreatePaymentRequest struct {
	OrderID       string          `json:"order_id" binding:"required"`
	UserID        string          `json:"user_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

// PaymentPage is a page of payments plus pagination metadata.
type PaymentPage struct {
	Payments []models.Payment `json:"payments"`
	Meta     MetaData         `json:"meta"`
}

type MetaData struct {
	Page          int   `json:"page"`
	Limit         int   `json:"limit"`
	TotalPayments int64 `json:"total_payments"`
	TotalPages    int64 `json:"total_pages"`
	HasMore       bool  `json:"has_more"`
}

// PaymentService owns the payment state machine. Mutations hold the
// per-payment lock so concurrent process/refund calls on the same payment are
// serialized and see the state the previous call left behind.
type PaymentService struct {
	repo        repository.PaymentRepository
	processors  *processor.Factory
	orders      clients.OrderAmounts
	producer    events.ProducerAPI
	currency    string
	checkAmount bool
	locks       *lock.KeyedMutex
	logger      *zap.Logger
}

// NewPaymentService wires the service. orders may be nil; when set together
// with checkAmount, created payments are validated against the order total.
func NewPaymentService(
	repo repository.PaymentRepository,
	processors *processor.Factory,
	orders clients.OrderAmounts,
	producer events.ProducerAPI,
	currency string,
	checkAmount bool,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:        repo,
		processors:  processors,
		orders:      orders,
		producer:    producer,
		currency:    currency,
		checkAmount: checkAmount,
		locks:       lock.NewKeyedMutex(),
		logger:      logger,
	}
}

// CreatePayment validates the request and stores a PENDING payment.
func (s *PaymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*models.Payment, *cerrors.Error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, cerrors.Validation("invalid order ID format")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, cerrors.Validation("invalid user ID format")
	}
	if !req.Amount.IsPositive() {
		return nil, cerrors.Validation("amount must be positive")
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if _, serr := s.processors.ForMethod(method); serr != nil {
		return nil, serr
	}

	if s.checkAmount && s.orders != nil {
		total, err := s.orders.TotalAmount(ctx, orderID)
		if err != nil {
			return nil, cerrors.Processing(err, "failed to verify order amount")
		}
		if !req.Amount.Equal(total) {
			return nil, cerrors.Validation("amount %s does not match order total %s", req.Amount, total)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	payment := &models.Payment{
		OrderID:       orderID,
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: method,
		Status:        models.PaymentStatusPending,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, cerrors.Internal(err, "failed to create payment")
	}

	s.logger.Info("Created payment",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", req.OrderID),
		zap.String("method", req.PaymentMethod),
	)
	return payment, nil
}

// ProcessPayment runs the gateway charge for a PENDING payment. The payment
// is moved to PROCESSING before the gateway call so a crash mid-charge is
// visible; the outcome is COMPLETED with a transaction ID or FAILED with the
// gateway's error message.
func (s *PaymentService) ProcessPayment(ctx context.Context, id uuid.UUID) (*models.Payment, *cerrors.Error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	payment, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, cerrors.InvalidState("payment %s is %s, only PENDING payments can be processed", id, payment.Status)
	}

	proc, serr := s.processors.ForMethod(payment.PaymentMethod)
	if serr != nil {
		return nil, serr
	}

	payment.Status = models.PaymentStatusProcessing
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, cerrors.Internal(err, "failed to update payment")
	}

	txID, procErr := proc.Process(ctx, payment)
	if procErr != nil {
		payment.Status = models.PaymentStatusFailed
		payment.ErrorMessage = procErr.Error()
		if err := s.repo.Update(ctx, payment); err != nil {
			return nil, cerrors.Internal(err, "failed to record payment failure")
		}
		s.logger.Warn("Payment processing failed",
			zap.String("payment_id", id.String()),
			zap.Error(procErr),
		)
		s.publishProcessed(ctx, payment)
		return nil, cerrors.Processing(procErr, "payment processing failed: %s", procErr.Error())
	}

	now := time.Now()
	payment.Status = models.PaymentStatusCompleted
	payment.TransactionID = txID
	payment.ErrorMessage = ""
	payment.CompletedAt = &now
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, cerrors.Internal(err, "failed to update payment")
	}

	s.logger.Info("Payment completed",
		zap.String("payment_id", id.String()),
		zap.String("transaction_id", txID),
	)
	s.publishProcessed(ctx, payment)
	return payment, nil
}

// RefundPayment reverses a COMPLETED payment. A payment without a transaction
// ID was never captured and cannot be refunded.
func (s *PaymentService) RefundPayment(ctx context.Context, id uuid.UUID) (*models.Payment, *cerrors.Error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	payment, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, cerrors.InvalidState("payment %s is %s, only COMPLETED payments can be refunded", id, payment.Status)
	}
	if payment.TransactionID == "" {
		return nil, cerrors.InvalidState("payment %s has no transaction to refund", id)
	}

	proc, serr := s.processors.ForMethod(payment.PaymentMethod)
	if serr != nil {
		return nil, serr
	}

	if err := proc.Refund(ctx, payment); err != nil {
		return nil, cerrors.Processing(err, "refund failed: %s", err.Error())
	}

	payment.Status = models.PaymentStatusRefunded
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, cerrors.Internal(err, "failed to update payment")
	}

	s.logger.Info("Payment refunded",
		zap.String("payment_id", id.String()),
		zap.String("transaction_id", payment.TransactionID),
	)
	s.publishProcessed(ctx, payment)
	return payment, nil
}

// UpdatePaymentStatus sets the status directly and stamps completedAt when
// the new status is COMPLETED.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Payment, *cerrors.Error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	payment, serr := s.findByID(ctx, id)
	if serr != nil {
		return nil, serr
	}

	payment.Status = status
	if status == models.PaymentStatusCompleted && payment.CompletedAt == nil {
		now := time.Now()
		payment.CompletedAt = &now
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, cerrors.Internal(err, "failed to update payment")
	}

	s.logger.Info("Updated payment status",
		zap.String("payment_id", id.String()),
		zap.String("status", string(status)),
	)
	return payment, nil
}

func (s *PaymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, *cerrors.Error) {
	return s.findByID(ctx, id)
}

func (s *PaymentService) GetPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, *cerrors.Error) {
	payments, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch payments")
	}
	return payments, nil
}

// GetPaymentsByUserID retrieves a page of the user's payments, newest first.
func (s *PaymentService) GetPaymentsByUserID(ctx context.Context, userID uuid.UUID, page, limit int) (*PaymentPage, *cerrors.Error) {
	payments, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch payments")
	}

	return &PaymentPage{
		Payments: payments,
		Meta: MetaData{
			Page:          page,
			Limit:         limit,
			TotalPayments: total,
			TotalPages:    calculateTotalPages(total, limit),
			HasMore:       total > int64(page*limit),
		},
	}, nil
}

func (s *PaymentService) GetPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, *cerrors.Error) {
	payments, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch payments")
	}
	return payments, nil
}

func (s *PaymentService) GetPaymentsByUserIDAndStatus(ctx context.Context, userID uuid.UUID, status models.PaymentStatus) ([]models.Payment, *cerrors.Error) {
	payments, err := s.repo.FindByUserIDAndStatus(ctx, userID, status)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch payments")
	}
	return payments, nil
}

func (s *PaymentService) GetPaymentsBetweenDates(ctx context.Context, start, end time.Time) ([]models.Payment, *cerrors.Error) {
	payments, err := s.repo.FindByCreatedAtBetween(ctx, start, end)
	if err != nil {
		return nil, cerrors.Internal(err, "failed to fetch payments")
	}
	return payments, nil
}

func (s *PaymentService) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, *cerrors.Error) {
	payment, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Payment not found with transaction ID: %s", transactionID)
		}
		return nil, cerrors.Internal(err, "failed to fetch payment")
	}
	return payment, nil
}

func (s *PaymentService) GetPaymentByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Payment, *cerrors.Error) {
	payment, err := s.repo.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Payment not found with payment intent ID: %s", paymentIntentID)
		}
		return nil, cerrors.Internal(err, "failed to fetch payment")
	}
	return payment, nil
}

// DeletePayment hard-deletes a payment record.
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) *cerrors.Error {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	payment, serr := s.findByID(ctx, id)
	if serr != nil {
		return serr
	}

	if err := s.repo.Delete(ctx, payment); err != nil {
		return cerrors.Internal(err, "failed to delete payment")
	}

	s.logger.Info("Deleted payment", zap.String("payment_id", id.String()))
	return nil
}

func (s *PaymentService) findByID(ctx context.Context, id uuid.UUID) (*models.Payment, *cerrors.Error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.NotFound("Payment not found with ID: %s", id)
		}
		return nil, cerrors.Internal(err, "failed to fetch payment")
	}
	return payment, nil
}

func (s *PaymentService) publishProcessed(ctx context.Context, payment *models.Payment) {
	evt := events.PaymentProcessedEvent{
		PaymentID:     payment.ID.String(),
		OrderID:       payment.OrderID.String(),
		UserID:        payment.UserID.String(),
		Amount:        payment.Amount,
		Status:        string(payment.Status),
		TransactionID: payment.TransactionID,
		ErrorMessage:  payment.ErrorMessage,
		ProcessedAt:   time.Now(),
	}
	if err := s.producer.Publish(ctx, events.TopicPaymentProcessed, payment.ID.String(), evt); err != nil {
		s.logger.Warn("Failed to publish payment-processed event", zap.Error(err))
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
