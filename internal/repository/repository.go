package repository

import (
	"context"

	"github.com/oakmart/storefront/internal/domain"
)

// CartMirror persists a serialized snapshot of each session's cart. The
// in-memory cart state is authoritative; the mirror only exists so a cart
// survives process restarts. Implementations key snapshots by session ID.
type CartMirror interface {
	// Load retrieves the mirrored cart for a session. Returns ErrNotFound
	// when no snapshot exists.
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save overwrites the mirrored snapshot for the cart's session.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the mirrored snapshot for a session. Deleting a
	// missing snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Status  *string
	Search  *string
	Page    int
	PerPage int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves a product by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update persists changes to an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// AdjustStock atomically adds delta (which may be negative) to the
	// stock quantity of an inventory-tracked product. Products that do not
	// track inventory are never matched.
	AdjustStock(ctx context.Context, id string, delta int) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus changes the status of an order, optionally setting a
	// cancel reason and stamping shipped/delivered timestamps.
	UpdateStatus(ctx context.Context, id string, status string, reason string) error

	// UpdatePaymentStatus changes the payment status of an order.
	UpdatePaymentStatus(ctx context.Context, id string, status string) error
}
