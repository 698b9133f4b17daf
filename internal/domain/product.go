package domain

import "time"

// Product status constants.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product represents a catalog product. Inventory tracking is per product:
// when TrackInventory is false the product is treated as always in stock and
// stock checks and adjustments skip it.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	SKU            string    `json:"sku"`
	Description    string    `json:"description,omitempty"`
	PriceCents     int64     `json:"price_cents"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         string    `json:"status"`
	TrackInventory bool      `json:"track_inventory"`
	StockQuantity  int       `json:"stock_quantity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasStockFor reports whether the requested quantity can be fulfilled.
// Untracked products always have stock.
func (p *Product) HasStockFor(quantity int) bool {
	return !p.TrackInventory || p.StockQuantity >= quantity
}

// ValidProductStatuses returns the set of valid product statuses.
func ValidProductStatuses() []string {
	return []string{ProductStatusDraft, ProductStatusPublished, ProductStatusArchived}
}

// IsValidProductStatus checks whether status is a valid product status.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
