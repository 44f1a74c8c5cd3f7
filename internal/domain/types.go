package domain

import (
	"time"
)

// Product is an immutable catalog record owned by the catalog store.
// Price is expressed in minor currency units.
type Product struct {
	ID          string
	Name        string
	Price       int64
	Stock       int
	Category    string
	Description string
	Image       string
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineAttributes carries optional presentation-only attributes for a cart line.
// Empty fields are omitted from persistence and payloads.
type LineAttributes struct {
	Size     string
	Color    string
	Material string
	Seller   string
}

// CartLine is one product's entry in a cart. Name, Price, and Image are
// denormalised snapshots taken when the line was created; StockCeiling mirrors
// the catalog stock at the time of the last mutation through the cart service.
type CartLine struct {
	ID           string
	ProductID    string
	Name         string
	Price        int64
	Image        string
	Quantity     int
	StockCeiling int
	Attributes   LineAttributes
	AddedAt      time.Time
	UpdatedAt    *time.Time
}

// Cart aggregates the mutable shopping cart state for one user session.
type Cart struct {
	UserID    string
	Lines     []CartLine
	UpdatedAt time.Time
}

// Subtotal sums price times quantity across all lines.
func (c Cart) Subtotal() int64 {
	var subtotal int64
	for _, line := range c.Lines {
		if line.Quantity <= 0 || line.Price < 0 {
			continue
		}
		subtotal += line.Price * int64(line.Quantity)
	}
	return subtotal
}

// ItemCount sums quantities across all lines. Distinct from len(Lines).
func (c Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// SavedItem is a saved-for-later entry: a product snapshot without a quantity.
type SavedItem struct {
	ID        string
	ProductID string
	Name      string
	Price     int64
	Image     string
	Category  string
	SavedAt   time.Time
}

// WishlistItem ties a user to a product with a display snapshot.
type WishlistItem struct {
	ProductID string
	Name      string
	Price     int64
	Image     string
	AddedAt   time.Time
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusProcessing indicates the order was accepted and is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order has been handed to a carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether the value is a known order status.
func ValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderTotals holds rolled-up monetary fields in minor currency units.
type OrderTotals struct {
	Subtotal int64
	Shipping int64
	Tax      int64
	Discount int64
	Total    int64
}

// OrderLine mirrors a cart line at the time of checkout.
type OrderLine struct {
	ProductID  string
	Name       string
	Price      int64
	Image      string
	Quantity   int
	Total      int64
	Attributes LineAttributes
}

// BillingInfo stores the customer-entered billing snapshot for an order.
type BillingInfo struct {
	FirstName  string
	LastName   string
	Email      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// Order is the write-once snapshot produced at checkout. Only Status mutates
// after creation.
type Order struct {
	ID            string
	OrderNumber   string
	UserID        string
	Lines         []OrderLine
	Totals        OrderTotals
	Status        OrderStatus
	Billing       BillingInfo
	PaymentMethod string
	CouponCode    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
