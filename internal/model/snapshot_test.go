package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVariantSnapshot(t *testing.T) {
	v := Variant{
		ID:              42,
		ProductID:       101,
		InventoryItemID: 4200,
		Position:        2,
		Title:           "M / Blue",
		SKU:             "TS-M-BLUE",
	}

	s, err := NewVariantSnapshot(v)
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.VariantID)
	assert.Equal(t, int64(101), s.ProductID)
	assert.Equal(t, int64(4200), s.InventoryItemID)
	assert.Equal(t, 2, s.Position)
	assert.NotEmpty(t, s.RawJSON)
}

func TestCreatePayload_StripsPlatformFields(t *testing.T) {
	imageID := int64(777)
	compareAt := "24.99"
	v := Variant{
		ID:                  42,
		ProductID:           101,
		InventoryItemID:     4200,
		Position:            2,
		Title:               "M / Blue",
		SKU:                 "TS-M-BLUE",
		Price:               "19.99",
		CompareAtPrice:      &compareAt,
		InventoryQuantity:   8,
		InventoryManagement: "shopify",
		ImageID:             &imageID,
		AdminGraphQLAPIID:   "gid://shopify/ProductVariant/42",
		CreatedAt:           "2024-01-01T00:00:00Z",
		UpdatedAt:           "2024-06-01T00:00:00Z",
	}

	s, err := NewVariantSnapshot(v)
	require.NoError(t, err)
	payload := s.CreatePayload()

	assert.Zero(t, payload.ID)
	assert.Zero(t, payload.ProductID)
	assert.Zero(t, payload.InventoryItemID)
	assert.Zero(t, payload.InventoryQuantity)
	assert.Nil(t, payload.ImageID)
	assert.Empty(t, payload.AdminGraphQLAPIID)
	assert.Empty(t, payload.CreatedAt)
	assert.Empty(t, payload.UpdatedAt)

	// Descriptive attributes and the position survive.
	assert.Equal(t, 2, payload.Position)
	assert.Equal(t, "M / Blue", payload.Title)
	assert.Equal(t, "TS-M-BLUE", payload.SKU)
	assert.Equal(t, "19.99", payload.Price)
	require.NotNil(t, payload.CompareAtPrice)
	assert.Equal(t, "24.99", *payload.CompareAtPrice)
	assert.Equal(t, "shopify", payload.InventoryManagement)
}

func TestVariantTracked(t *testing.T) {
	tracked := Variant{InventoryManagement: "shopify"}
	untracked := Variant{}
	external := Variant{InventoryManagement: "fulfillment-service"}

	assert.True(t, tracked.Tracked())
	assert.False(t, untracked.Tracked())
	assert.False(t, external.Tracked())
}
