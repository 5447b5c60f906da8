package service

import (
	"context"
	"errors"

	"shopify-variant-reset/internal/model"
)

// PlatformAPI defines the remote platform operations the reconcilers need.
// *shopify.Client satisfies it; tests substitute a fake.
type PlatformAPI interface {
	// Variants fetches all variants of a product, in platform order.
	Variants(ctx context.Context, productID int64) ([]model.Variant, error)

	// CreateVariant creates a variant and returns the created resource,
	// including the platform-assigned inventory_item_id.
	CreateVariant(ctx context.Context, productID int64, v model.Variant) (model.Variant, error)

	// DeleteVariant deletes one variant of a product.
	DeleteVariant(ctx context.Context, productID, variantID int64) error

	// InventoryLevels fetches the current levels held by an inventory item.
	InventoryLevels(ctx context.Context, inventoryItemID int64) ([]model.InventoryLevel, error)

	// SetInventoryLevel sets the available quantity at a location.
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error

	// DeleteInventoryLevel removes the level record at a location.
	DeleteInventoryLevel(ctx context.Context, inventoryItemID, locationID int64) error
}

// ErrAllVariantsExcluded signals that every variant of a product matched
// the exclusion predicate. Resetting would leave the product variant-less,
// so the product is failed before anything is deleted.
var ErrAllVariantsExcluded = errors.New("all variants match the exclusion predicate")

// ErrNoVariants signals a product with no variants at capture time.
// Such products are undefined for this engine and are not reconciled.
var ErrNoVariants = errors.New("product has no variants")

// ErrNoSurvivors signals that deleting the primary variant would leave the
// product with zero variants because nothing was recreated before it.
var ErrNoSurvivors = errors.New("no surviving variants before primary deletion")
