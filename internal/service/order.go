package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/oakmart/storefront/pkg/errors"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/event"
	"github.com/oakmart/storefront/internal/repository"
)

// Pricing holds the order summary parameters.
type Pricing struct {
	// TaxRate is the fraction of the subtotal charged as tax, e.g. 0.08.
	TaxRate float64
	// FreeShippingThresholdCents is the subtotal above which shipping is free.
	FreeShippingThresholdCents int64
	// FlatShippingFeeCents is the shipping fee below the threshold.
	FlatShippingFeeCents int64
}

// CheckoutLine identifies one product and quantity to order. Prices are not
// accepted from the caller; the catalog is authoritative.
type CheckoutLine struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput holds the parameters for assembling an order.
type CreateOrderInput struct {
	UserID          string
	Lines           []CheckoutLine
	ShippingAddress *domain.Address
	PaymentMethod   string
}

// OrderService assembles and manages orders.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
	pricing  Pricing
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger, pricing Pricing) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		producer: producer,
		logger:   logger,
		pricing:  pricing,
	}
}

// CreateOrder assembles an order from checkout lines. Every product is
// re-fetched so stock and prices are authoritative at order time; the fetched
// price is frozen onto the order line. Stock is checked before any
// persistence, then decremented best-effort after the order is stored. The
// check and the decrement are deliberately not one transaction; concurrent
// checkouts may briefly oversell.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.ProductID == "" {
			return nil, apperrors.InvalidInput("product id is required for every line")
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput("quantity must be greater than 0 for every line")
		}
	}
	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	// Authoritative product fetch, one concurrent lookup per line. The
	// results slice is index-aligned with the input so line order is kept.
	products := make([]*domain.Product, len(input.Lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range input.Lines {
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, line.ProductID)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch order products: %w", err)
	}

	for i, line := range input.Lines {
		if !products[i].HasStockFor(line.Quantity) {
			return nil, apperrors.InsufficientStock(products[i].Name, products[i].StockQuantity, line.Quantity)
		}
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var subtotal int64
	items := make([]domain.OrderItem, len(input.Lines))
	for i, line := range input.Lines {
		p := products[i]
		items[i] = domain.OrderItem{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			ProductID:      p.ID,
			Name:           p.Name,
			SKU:            p.SKU,
			UnitPriceCents: p.PriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: p.PriceCents * int64(line.Quantity),
			TrackInventory: p.TrackInventory,
		}
		subtotal += items[i].LineTotalCents
	}

	order := &domain.Order{
		ID:              orderID,
		OrderNumber:     newOrderNumber(now),
		UserID:          input.UserID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Items:           items,
		Summary:         s.summarize(subtotal),
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Best-effort decrement. The order is already stored; a failed
	// decrement is logged and reconciled out of band, never rolled back.
	for _, item := range order.Items {
		if !item.TrackInventory {
			continue
		}
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to decrement stock",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", order.UserID),
		slog.Int64("total_cents", order.Summary.TotalCents),
	)

	return order, nil
}

// summarize computes the order summary from a subtotal in cents.
func (s *OrderService) summarize(subtotal int64) domain.OrderSummary {
	tax := int64(math.Round(float64(subtotal) * s.pricing.TaxRate))

	var shipping int64
	if subtotal <= s.pricing.FreeShippingThresholdCents {
		shipping = s.pricing.FlatShippingFeeCents
	}

	return domain.OrderSummary{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shipping,
		DiscountCents: 0,
		TotalCents:    subtotal + tax + shipping,
	}
}

// GetOrder retrieves an order, enforcing ownership. A missing order and an
// order owned by someone else are indistinguishable to the caller.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	if order.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}

	return order, nil
}

// ListOrders returns a filtered, paginated list of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if filter.Status != nil && !domain.IsValidOrderStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *filter.Status, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// CancelOrder cancels a pending order owned by the caller and restores the
// stock its tracked lines consumed.
func (s *OrderService) CancelOrder(ctx context.Context, userID, id, reason string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for cancel: %w", err)
	}

	if order.UserID != userID {
		// Same surface as a missing order so callers cannot probe for
		// other users' order ids.
		s.logger.WarnContext(ctx, "cancel denied for foreign order",
			slog.String("order_id", id),
			slog.String("user_id", userID),
		)
		return nil, apperrors.NotFound("order", id)
	}

	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot cancel order in %q status", order.Status))
	}

	if err := s.orders.UpdateStatus(ctx, id, domain.OrderStatusCanceled, reason); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	s.restoreStock(ctx, order)

	if err := s.producer.PublishOrderCanceled(ctx, id, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.canceled event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order canceled",
		slog.String("order_id", id),
		slog.String("reason", reason),
	)

	order.Status = domain.OrderStatusCanceled
	order.CanceledReason = reason

	return order, nil
}

// UpdateOrderStatus transitions the order to a new status with validation.
// Canceling through this path restores stock the same way CancelOrder does.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, newStatus, reason string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", newStatus, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot transition from %q to %q", order.Status, newStatus))
	}

	oldStatus := order.Status

	if err := s.orders.UpdateStatus(ctx, id, newStatus, reason); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if newStatus == domain.OrderStatusCanceled {
		s.restoreStock(ctx, order)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	order.Status = newStatus
	if reason != "" {
		order.CanceledReason = reason
	}

	return order, nil
}

// UpdatePaymentStatus transitions the order's payment status with validation.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id, newStatus string) (*domain.Order, error) {
	switch newStatus {
	case domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment status %q", newStatus))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for payment status update: %w", err)
	}

	if !order.CanTransitionPaymentTo(newStatus) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot transition payment from %q to %q", order.PaymentStatus, newStatus))
	}

	if err := s.orders.UpdatePaymentStatus(ctx, id, newStatus); err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	s.logger.InfoContext(ctx, "order payment status updated",
		slog.String("order_id", id),
		slog.String("old_payment_status", order.PaymentStatus),
		slog.String("new_payment_status", newStatus),
	)

	order.PaymentStatus = newStatus

	return order, nil
}

// restoreStock re-increments stock for each tracked line of a canceled order.
// Failures are logged and reconciled out of band.
func (s *OrderService) restoreStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if !item.TrackInventory {
			continue
		}
		if err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to restore stock",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}

func validateShippingAddress(addr *domain.Address) error {
	if addr == nil {
		return apperrors.InvalidInput("shipping address is required")
	}
	if addr.FullName == "" {
		return apperrors.InvalidInput("shipping address full name is required")
	}
	if addr.AddressLine == "" {
		return apperrors.InvalidInput("shipping address line is required")
	}
	if addr.City == "" {
		return apperrors.InvalidInput("shipping address city is required")
	}
	if addr.PostalCode == "" {
		return apperrors.InvalidInput("shipping address postal code is required")
	}
	if addr.Country == "" {
		return apperrors.InvalidInput("shipping address country is required")
	}
	return nil
}

const orderNumberCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newOrderNumber builds a human-readable order number: a date component plus
// a short random suffix.
func newOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.IntN(len(orderNumberCharset))]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
