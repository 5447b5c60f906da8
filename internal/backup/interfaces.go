package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopify-variant-reset/internal/model"
)

// ErrNotFound indicates the requested snapshot row does not exist.
var ErrNotFound = errors.New("backup: snapshot not found")

// Store holds per-product variant and inventory snapshots for the duration
// of a run. Snapshots are written once during capture, committed, read
// repeatedly during recreation and inventory restore, and discarded when
// the product finishes. One product is in flight at a time, so backends
// may use a transaction per product with no cross-product locking.
type Store interface {
	// Begin opens the capture transaction for a product.
	Begin(ctx context.Context, productID int64) error

	// SaveVariants persists one snapshot per variant.
	SaveVariants(ctx context.Context, snaps []model.VariantSnapshot) error

	// SaveInventory persists captured (location, quantity) rows.
	SaveInventory(ctx context.Context, rows []model.InventorySnapshot) error

	// Commit makes the captured snapshots visible for read-back.
	Commit(ctx context.Context) error

	// VariantAtPosition1 returns the snapshot at original position 1.
	VariantAtPosition1(ctx context.Context, productID int64) (model.VariantSnapshot, error)

	// SecondaryVariants returns snapshots ordered by original position,
	// excluding position 1.
	SecondaryVariants(ctx context.Context, productID int64) ([]model.VariantSnapshot, error)

	// Levels returns all captured inventory rows for a variant. An empty
	// result means the variant was untracked at capture time.
	Levels(ctx context.Context, variantID int64) ([]model.InventorySnapshot, error)

	// OriginalLocations returns the set of locations captured for a variant.
	OriginalLocations(ctx context.Context, variantID int64) (map[int64]struct{}, error)

	// QuantityAt returns the captured quantity for one (variant, location)
	// pair, or ErrNotFound.
	QuantityAt(ctx context.Context, variantID, locationID int64) (int, error)

	// Discard drops all snapshot rows for a product.
	Discard(ctx context.Context, productID int64) error

	// Close releases the underlying storage.
	Close() error
}

// decodeSnapshotVariant rehydrates the parsed variant from the stored JSON.
func decodeSnapshotVariant(snap *model.VariantSnapshot) error {
	if err := json.Unmarshal(snap.RawJSON, &snap.Variant); err != nil {
		return fmt.Errorf("failed to decode snapshot for variant %d: %w", snap.VariantID, err)
	}
	return nil
}
