package domain

import "time"

// CartLine is one row in a shopping cart: a product snapshot plus a quantity.
// The snapshot fields (name, SKU, price, image) are captured when the product
// is first added so the cart renders without further catalog lookups.
type CartLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	ImageURL       string `json:"image_url,omitempty"`
	Quantity       int    `json:"quantity"`
}

// LineTotalCents returns price times quantity for this line.
func (l *CartLine) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Cart is the in-memory cart state for one session. TotalItems and TotalCents
// are derived from Lines and must only be set through Recalculate. Visible is
// the cart panel's UI state and is never persisted; a restored cart always
// starts closed.
type Cart struct {
	SessionID  string     `json:"session_id"`
	Lines      []CartLine `json:"lines"`
	TotalItems int        `json:"total_items"`
	TotalCents int64      `json:"total_cents"`
	Visible    bool       `json:"visible"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewCart creates an empty cart for the given session.
func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Lines:     []CartLine{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Recalculate recomputes the derived aggregates with a full fold over Lines.
// Always a full recompute, never an incremental patch, so the aggregates
// cannot drift from the lines after a missed update.
func (c *Cart) Recalculate() {
	var items int
	var cents int64
	for i := range c.Lines {
		items += c.Lines[i].Quantity
		cents += c.Lines[i].LineTotalCents()
	}
	c.TotalItems = items
	c.TotalCents = cents
}

// FindLineIndex returns the index of the line for the given product ID, or -1.
// At most one line exists per product ID.
func (c *Cart) FindLineIndex(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// RemoveLineAt deletes the line at index i, preserving the order of the rest.
func (c *Cart) RemoveLineAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}
