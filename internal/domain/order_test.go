package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCanceled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusCanceled, OrderStatusPending, false},
		{OrderStatusRefunded, OrderStatusPending, false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.from}
		assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrder_CanTransitionPaymentTo(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusPaid, PaymentStatusRefunded, true},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		o := &Order{PaymentStatus: tt.from}
		assert.Equal(t, tt.allowed, o.CanTransitionPaymentTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus(OrderStatusPending))
	assert.True(t, IsValidOrderStatus(OrderStatusRefunded))
	assert.False(t, IsValidOrderStatus("bogus"))
	assert.False(t, IsValidOrderStatus(""))
}

func TestProduct_HasStockFor_TrackedAndUntracked(t *testing.T) {
	tracked := &Product{TrackInventory: true, StockQuantity: 2}
	assert.True(t, tracked.HasStockFor(2))
	assert.False(t, tracked.HasStockFor(3))

	untracked := &Product{TrackInventory: false, StockQuantity: 0}
	assert.True(t, untracked.HasStockFor(100))
}
