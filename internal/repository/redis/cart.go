package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakmart/storefront/internal/domain"
	apperrors "github.com/oakmart/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// cartSnapshot is the wire form of a mirrored cart. Panel visibility is UI
// state and is deliberately absent; a restored cart always starts closed.
type cartSnapshot struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	TotalCents int64             `json:"total_cents"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CartMirror implements repository.CartMirror using Redis.
type CartMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartMirror creates a new Redis-backed cart mirror.
func NewCartMirror(client *redis.Client, ttl time.Duration) *CartMirror {
	return &CartMirror{
		client: client,
		ttl:    ttl,
	}
}

// Load retrieves the mirrored cart for a session.
func (m *CartMirror) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := keyPrefix + sessionID

	data, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var snap cartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	cart := &domain.Cart{
		SessionID: sessionID,
		Lines:     snap.Lines,
		UpdatedAt: snap.UpdatedAt,
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	// Aggregates are recomputed from the lines rather than trusted from
	// the snapshot, so a stale or hand-edited mirror cannot drift them.
	cart.Recalculate()

	return cart, nil
}

// Save overwrites the mirrored snapshot for the cart's session.
func (m *CartMirror) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.SessionID

	data, err := json.Marshal(cartSnapshot{
		Lines:      cart.Lines,
		TotalItems: cart.TotalItems,
		TotalCents: cart.TotalCents,
		UpdatedAt:  cart.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := m.client.Set(ctx, key, data, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes the mirrored snapshot for a session.
func (m *CartMirror) Delete(ctx context.Context, sessionID string) error {
	key := keyPrefix + sessionID

	if err := m.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
