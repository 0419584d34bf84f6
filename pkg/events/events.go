// Package events defines the cross-service event contracts and the Kafka
// producer used to publish them. Delivery is best-effort: callers log and
// continue when a publish fails.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names shared across services.
const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusChanged = "order-status-changed"
	TopicPaymentProcessed   = "payment-processed"
	TopicCheckoutRequested  = "checkout.requested"
)

type OrderItemEvent struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderCreatedEvent struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      string           `json:"user_id"`
	Items       []OrderItemEvent `json:"items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentProcessedEvent struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

type CheckoutItemEvent struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type CheckoutRequestedEvent struct {
	Event     string              `json:"event"`
	UserID    string              `json:"user_id"`
	Items     []CheckoutItemEvent `json:"items"`
	Timestamp time.Time           `json:"timestamp"`
}
