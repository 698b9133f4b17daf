package domain

import "time"

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
	OrderStatusRefunded   = "refunded"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order is a customer order assembled at checkout. Items and Summary are
// frozen at creation time; only Status, PaymentStatus, and the lifecycle
// timestamps change afterward.
type Order struct {
	ID              string       `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          string       `json:"user_id"`
	Status          string       `json:"status"`
	PaymentStatus   string       `json:"payment_status"`
	Items           []OrderItem  `json:"items"`
	Summary         OrderSummary `json:"summary"`
	ShippingAddress *Address     `json:"shipping_address,omitempty"`
	PaymentMethod   string       `json:"payment_method,omitempty"`
	CanceledReason  string       `json:"canceled_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	ShippedAt       *time.Time   `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time   `json:"delivered_at,omitempty"`
}

// OrderItem is an immutable line item snapshot. UnitPriceCents is the
// product's price at order time and is never re-derived from the catalog,
// preserving price history.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
	TrackInventory bool   `json:"track_inventory"`
}

// OrderSummary is the financial breakdown of an order, in integer cents.
// Invariant: TotalCents == SubtotalCents + TaxCents + ShippingCents - DiscountCents.
type OrderSummary struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Address is a shipping address.
type Address struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
		OrderStatusRefunded,
	}
}

// IsValidOrderStatus checks if a status string is a valid order status.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// orderTransitions defines which status transitions are allowed.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCanceled:   {},
	OrderStatusRefunded:   {},
}

// CanTransitionTo checks whether the order may move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// paymentTransitions defines which payment status transitions are allowed.
var paymentTransitions = map[string][]string{
	PaymentStatusPending:  {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusFailed:   {PaymentStatusPending},
	PaymentStatusRefunded: {},
}

// CanTransitionPaymentTo checks whether the payment status may move to target.
func (o *Order) CanTransitionPaymentTo(target string) bool {
	for _, s := range paymentTransitions[o.PaymentStatus] {
		if s == target {
			return true
		}
	}
	return false
}
