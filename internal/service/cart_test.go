package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/oakmart/storefront/pkg/errors"
	pkgkafka "github.com/oakmart/storefront/pkg/kafka"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/event"
)

// --- Mock Mirror ---

type mockCartMirror struct {
	mock.Mock
}

func (m *mockCartMirror) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartMirror) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartMirror) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	// Points at no real broker; publish failures are logged, not surfaced.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newCartService(mirror *mockCartMirror) *CartService {
	return NewCartService(mirror, newTestProducer(), newTestLogger())
}

func testProduct(id string, priceCents int64) *domain.Product {
	return &domain.Product{
		ID:             id,
		Name:           "Product " + id,
		Slug:           "product-" + id,
		SKU:            "SKU-" + id,
		PriceCents:     priceCents,
		ImageURL:       "https://img.example.com/" + id + ".jpg",
		Status:         domain.ProductStatusPublished,
		TrackInventory: true,
		StockQuantity:  10,
	}
}

func emptyMirror() *mockCartMirror {
	mirror := new(mockCartMirror)
	mirror.On("Load", mock.Anything, mock.Anything).Return(nil, apperrors.NotFound("cart", "any"))
	mirror.On("Save", mock.Anything, mock.Anything).Return(nil)
	mirror.On("Delete", mock.Anything, mock.Anything).Return(nil)
	return mirror
}

// --- AddItem ---

func TestCartAddItem_NewLine(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1990), 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.Equal(t, "Product p1", cart.Lines[0].Name)
	assert.Equal(t, int64(1990), cart.Lines[0].UnitPriceCents)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, int64(3980), cart.TotalCents)
}

func TestCartAddItem_MergesByProduct(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1990), 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1990), 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 4, cart.Lines[0].Quantity)
	assert.Equal(t, 4, cart.TotalItems)
	assert.Equal(t, int64(7960), cart.TotalCents)
}

func TestCartAddItem_PreservesLineOrder(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess-1", testProduct("p2", 2000), 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 1)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.Equal(t, "p2", cart.Lines[1].ProductID)
}

func TestCartAddItem_Validation(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "", testProduct("p1", 1000), 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.AddItem(ctx, "sess-1", nil, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), MaxQuantityPerLine+1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartAddItem_MirrorSaveFailureDoesNotFail(t *testing.T) {
	mirror := new(mockCartMirror)
	mirror.On("Load", mock.Anything, mock.Anything).Return(nil, apperrors.NotFound("cart", "sess-1"))
	mirror.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := newCartService(mirror)

	cart, err := svc.AddItem(context.Background(), "sess-1", testProduct("p1", 1000), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.TotalItems)
}

// --- RemoveItem ---

func TestCartRemoveItem(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "sess-1", "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, int64(0), cart.TotalCents)
}

func TestCartRemoveItem_AbsentIsNoOp(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "sess-1", "never-added")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.TotalItems)
}

// --- SetQuantity ---

func TestCartSetQuantity(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(ctx, "sess-1", "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Lines[0].Quantity)
	assert.Equal(t, int64(7000), cart.TotalCents)
}

func TestCartSetQuantity_ZeroRemoves(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(ctx, "sess-1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	_, err = svc.AddItem(ctx, "sess-1", testProduct("p2", 500), 1)
	require.NoError(t, err)
	cart, err = svc.SetQuantity(ctx, "sess-1", "p2", -3)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestCartSetQuantity_AbsentIsNoOp(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(ctx, "sess-1", "never-added", 5)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.TotalItems)
}

// --- Increment / Decrement ---

func TestCartIncrementItem(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 1)
	require.NoError(t, err)

	cart, err := svc.IncrementItem(ctx, "sess-1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestCartDecrementItem(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 3)
	require.NoError(t, err)

	cart, err := svc.DecrementItem(ctx, "sess-1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestCartDecrementItem_AtOneRemoves(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 1)
	require.NoError(t, err)

	cart, err := svc.DecrementItem(ctx, "sess-1", "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.TotalItems)
}

// --- Clear ---

func TestCartClear(t *testing.T) {
	mirror := emptyMirror()
	svc := newCartService(mirror)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-1", testProduct("p1", 1000), 2)
	require.NoError(t, err)

	cart, err := svc.Clear(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, int64(0), cart.TotalCents)
	mirror.AssertCalled(t, "Delete", mock.Anything, "sess-1")
}

// --- Panel visibility ---

func TestCartPanelVisibility(t *testing.T) {
	mirror := new(mockCartMirror)
	mirror.On("Load", mock.Anything, "sess-1").Return(nil, apperrors.NotFound("cart", "sess-1"))
	svc := newCartService(mirror)
	ctx := context.Background()

	cart, err := svc.OpenPanel(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, cart.Visible)

	cart, err = svc.TogglePanel(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, cart.Visible)

	cart, err = svc.TogglePanel(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, cart.Visible)

	cart, err = svc.ClosePanel(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, cart.Visible)

	// Visibility changes never touch the mirror.
	mirror.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mirror.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// --- Restore ---

func TestCartRestore_FromMirror(t *testing.T) {
	restored := &domain.Cart{
		SessionID: "sess-1",
		Lines: []domain.CartLine{
			{ProductID: "p1", Name: "Product p1", UnitPriceCents: 1500, Quantity: 2},
		},
		UpdatedAt: time.Now().UTC(),
	}
	restored.Recalculate()

	mirror := new(mockCartMirror)
	mirror.On("Load", mock.Anything, "sess-1").Return(restored, nil).Once()
	svc := newCartService(mirror)

	cart, err := svc.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, int64(3000), cart.TotalCents)

	// Second access hits the in-memory cart; the mirror is read once.
	_, err = svc.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	mirror.AssertNumberOfCalls(t, "Load", 1)
}

func TestCartRestore_UnreadableMirrorStartsEmpty(t *testing.T) {
	mirror := new(mockCartMirror)
	mirror.On("Load", mock.Anything, "sess-1").Return(nil, errors.New("unmarshal cart snapshot: invalid character"))
	svc := newCartService(mirror)

	cart, err := svc.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, int64(0), cart.TotalCents)
}

// --- Session isolation ---

func TestCartSessionsAreIsolated(t *testing.T) {
	svc := newCartService(emptyMirror())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess-a", testProduct("p1", 1000), 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess-b", testProduct("p2", 2000), 5)
	require.NoError(t, err)

	a, err := svc.GetCart(ctx, "sess-a")
	require.NoError(t, err)
	b, err := svc.GetCart(ctx, "sess-b")
	require.NoError(t, err)

	assert.Equal(t, 1, a.TotalItems)
	assert.Equal(t, 5, b.TotalItems)
}
