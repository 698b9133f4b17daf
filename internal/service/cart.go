package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/oakmart/storefront/pkg/errors"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/event"
	"github.com/oakmart/storefront/internal/repository"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerLine is the maximum quantity allowed for a single cart line.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct lines allowed in a cart.
	MaxLinesPerCart = 50
)

// CartService is the in-memory cart store. The map of live carts is
// authoritative; Redis only mirrors each cart so it survives restarts.
// Mirror and event failures are logged and never surfaced to the caller.
type CartService struct {
	mu       sync.Mutex
	carts    map[string]*domain.Cart
	mirror   repository.CartMirror
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service backed by the given mirror.
func NewCartService(mirror repository.CartMirror, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    make(map[string]*domain.Cart),
		mirror:   mirror,
		producer: producer,
		logger:   logger,
	}
}

// getOrRestore returns the live cart for a session, restoring it from the
// mirror on first access. A missing or unreadable snapshot yields an empty
// cart. Callers must hold s.mu.
func (s *CartService) getOrRestore(ctx context.Context, sessionID string) *domain.Cart {
	if cart, ok := s.carts[sessionID]; ok {
		return cart
	}

	cart, err := s.mirror.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "cart mirror unreadable, starting empty",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		cart = domain.NewCart(sessionID)
	}

	s.carts[sessionID] = cart
	return cart
}

// persist mirrors the cart and publishes a cart.updated event. Neither
// failure is surfaced; the in-memory cart is already mutated.
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) {
	if err := s.mirror.Save(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to mirror cart",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

// snapshot returns a copy of the cart safe to hand to callers after s.mu is
// released.
func snapshot(cart *domain.Cart) *domain.Cart {
	out := *cart
	out.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(out.Lines, cart.Lines)
	return &out
}

// GetCart returns the cart for a session, restoring from the mirror on first
// access.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.getOrRestore(ctx, sessionID)), nil
}

// AddItem adds a product to the cart, merging quantities when a line for the
// product already exists. The product's name, SKU, price and image are
// snapshotted onto the line at add time.
func (s *CartService) AddItem(ctx context.Context, sessionID string, product *domain.Product, quantity int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if product == nil || product.ID == "" {
		return nil, apperrors.InvalidInput("product is required")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)

	if i := cart.FindLineIndex(product.ID); i >= 0 {
		newQty := cart.Lines[i].Quantity + quantity
		if newQty > MaxQuantityPerLine {
			return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerLine))
		}
		cart.Lines[i].Quantity = newQty
	} else {
		if len(cart.Lines) >= MaxLinesPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d lines", MaxLinesPerCart))
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:      product.ID,
			Name:           product.Name,
			SKU:            product.SKU,
			UnitPriceCents: product.PriceCents,
			ImageURL:       product.ImageURL,
			Quantity:       quantity,
		})
	}

	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	return snapshot(cart), nil
}

// RemoveItem removes the line for a product. Removing an absent product is a
// no-op.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)

	i := cart.FindLineIndex(productID)
	if i < 0 {
		return snapshot(cart), nil
	}

	cart.RemoveLineAt(i)
	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	return snapshot(cart), nil
}

// SetQuantity sets the quantity of a product's line. A quantity of zero or
// less removes the line; setting an absent product is a no-op.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)

	i := cart.FindLineIndex(productID)
	if i < 0 {
		return snapshot(cart), nil
	}

	if quantity <= 0 {
		cart.RemoveLineAt(i)
	} else {
		cart.Lines[i].Quantity = quantity
	}

	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	return snapshot(cart), nil
}

// IncrementItem raises a line's quantity by one.
func (s *CartService) IncrementItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)

	i := cart.FindLineIndex(productID)
	if i < 0 {
		return snapshot(cart), nil
	}
	if cart.Lines[i].Quantity >= MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	cart.Lines[i].Quantity++
	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	return snapshot(cart), nil
}

// DecrementItem lowers a line's quantity by one. Decrementing a line at
// quantity one removes it.
func (s *CartService) DecrementItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)

	i := cart.FindLineIndex(productID)
	if i < 0 {
		return snapshot(cart), nil
	}

	if cart.Lines[i].Quantity <= 1 {
		cart.RemoveLineAt(i)
	} else {
		cart.Lines[i].Quantity--
	}

	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	return snapshot(cart), nil
}

// Clear empties the cart and deletes its mirror entry.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)
	cart.Lines = []domain.CartLine{}
	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()

	if err := s.mirror.Delete(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete cart mirror",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	return snapshot(cart), nil
}

// OpenPanel marks the cart panel as visible. Visibility is UI state only and
// is neither mirrored nor published.
func (s *CartService) OpenPanel(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.setVisible(ctx, sessionID, func(c *domain.Cart) { c.Visible = true })
}

// ClosePanel marks the cart panel as hidden.
func (s *CartService) ClosePanel(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.setVisible(ctx, sessionID, func(c *domain.Cart) { c.Visible = false })
}

// TogglePanel flips the cart panel's visibility.
func (s *CartService) TogglePanel(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.setVisible(ctx, sessionID, func(c *domain.Cart) { c.Visible = !c.Visible })
}

func (s *CartService) setVisible(ctx context.Context, sessionID string, mutate func(*domain.Cart)) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.getOrRestore(ctx, sessionID)
	mutate(cart)

	return snapshot(cart), nil
}
