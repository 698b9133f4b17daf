package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_HasStockFor(t *testing.T) {
	tracked := &Product{TrackInventory: true, StockQuantity: 5}

	assert.True(t, tracked.HasStockFor(5))
	assert.True(t, tracked.HasStockFor(1))
	assert.False(t, tracked.HasStockFor(6))
}

func TestProduct_HasStockFor_Untracked(t *testing.T) {
	giftCard := &Product{TrackInventory: false, StockQuantity: 0}

	assert.True(t, giftCard.HasStockFor(1))
	assert.True(t, giftCard.HasStockFor(1000))
}

func TestIsValidProductStatus(t *testing.T) {
	assert.True(t, IsValidProductStatus(ProductStatusDraft))
	assert.True(t, IsValidProductStatus(ProductStatusPublished))
	assert.True(t, IsValidProductStatus(ProductStatusArchived))
	assert.False(t, IsValidProductStatus("deleted"))
	assert.False(t, IsValidProductStatus(""))
}
