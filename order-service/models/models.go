package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state. The happy path is
// PENDING → PAYMENT_PENDING → PAID → PROCESSING → SHIPPED → DELIVERED, with
// CANCELLED and REFUNDED reachable from any pre-terminal state. Transition
// legality is not enforced; any status can be set at any time.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusRefunded       OrderStatus = "REFUNDED"
)

// Address is a shipping or billing address snapshot captured at checkout.
type Address struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	PostalCode   string `json:"postal_code"`
	PhoneNumber  string `json:"phone_number,omitempty"`
}

// PaymentDetails is the order's snapshot of its payment, not a live reference
// to the payment aggregate.
type PaymentDetails struct {
	PaymentID     string          `json:"payment_id,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	TransactionID string          `json:"transaction_id,omitempty"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
}

// OrderItem is an immutable copy of a cart line captured at order creation.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   string          `json:"product_id" gorm:"not null"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;not null"`
	UserID          uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress Address         `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  Address         `json:"billing_address" gorm:"embedded;embeddedPrefix:billing_"`
	PaymentDetails  PaymentDetails  `json:"payment_details" gorm:"embedded;embeddedPrefix:payment_"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2)"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount" gorm:"type:numeric(12,2)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

// Pricing holds the monetary policy applied at order creation.
type Pricing struct {
	TaxRate               decimal.Decimal // e.g. 0.10 for 10%
	FlatShippingFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal // subtotal strictly above this ships free
}

// CalculateTotals recomputes subtotal, tax, shipping and total from the order
// items. Tax is rounded to the currency minor unit; nothing else needs
// rounding because inputs are already two-decimal amounts.
func (o *Order) CalculateTotals(p Pricing) {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	o.Subtotal = subtotal

	o.TaxAmount = subtotal.Mul(p.TaxRate).Round(2)

	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		o.ShippingAmount = decimal.Zero
	} else {
		o.ShippingAmount = p.FlatShippingFee
	}

	o.TotalAmount = o.Subtotal.Add(o.TaxAmount).Add(o.ShippingAmount)
}
