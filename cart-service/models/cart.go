package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product entry in a user's cart. Subtotal is always
// UnitPrice * Quantity; it is refreshed by the Cart mutators.
type CartItem struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductImageURL string          `json:"product_image_url,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Cart is the mutable shopping cart owned 1:1 by a user. At most one item per
// product ID; TotalAmount is the sum of item subtotals and is recomputed in
// full after every mutation.
type Cart struct {
	UserID      string          `json:"user_id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewCart returns an empty cart for the given user.
func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:      userID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateTotalAmount recomputes TotalAmount from scratch over all items.
func (c *Cart) UpdateTotalAmount() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal)
	}
	c.TotalAmount = total
}

// AddItem merges item into the cart: an existing line for the same product
// gets its quantity incremented, otherwise the line is appended.
func (c *Cart) AddItem(item CartItem) {
	now := time.Now()
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Subtotal = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
			c.Items[i].UpdatedAt = now
			c.UpdateTotalAmount()
			return
		}
	}

	item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.CreatedAt = now
	item.UpdatedAt = now
	c.Items = append(c.Items, item)
	c.UpdateTotalAmount()
}

// RemoveItem drops the line for productID if present. Idempotent.
func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.UpdateTotalAmount()
}

// UpdateItemQuantity sets the quantity for productID in place. A quantity of
// zero or less removes the line. A missing product is a no-op.
func (c *Cart) UpdateItemQuantity(productID string, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity <= 0 {
				c.RemoveItem(productID)
				return
			}
			c.Items[i].Quantity = quantity
			c.Items[i].Subtotal = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			c.Items[i].UpdatedAt = time.Now()
			break
		}
	}
	c.UpdateTotalAmount()
}

// Clear empties the cart and resets the total.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalAmount = decimal.Zero
	c.UpdatedAt = time.Now()
}

// ContainsProduct reports whether a line for productID exists.
func (c *Cart) ContainsProduct(productID string) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
