package service

import (
	"context"
	"log"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/model"
)

// InventoryReconciler restores captured per-location quantities onto the
// recreated variants and removes the level records the platform injected
// at locations the original variant never used.
type InventoryReconciler struct {
	api   PlatformAPI
	store backup.Store
}

// NewInventoryReconciler creates an inventory reconciler.
func NewInventoryReconciler(api PlatformAPI, store backup.Store) *InventoryReconciler {
	return &InventoryReconciler{api: api, store: store}
}

// Restore reconciles inventory for every recreated variant of a product.
// Variants with no captured rows were untracked at capture time; their
// untracked status is itself correct and is not disturbed. A failed set or
// delete for one (variant, location) pair is logged and the rest proceeds.
// Only backup-store read failures abort.
func (r *InventoryReconciler) Restore(ctx context.Context, productID int64, runCtx *model.RunContext) error {
	for variantID, newItemID := range runCtx.NewInventoryItemIDs {
		levels, err := r.store.Levels(ctx, variantID)
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			continue
		}

		for _, lv := range levels {
			if err := r.api.SetInventoryLevel(ctx, newItemID, lv.LocationID, lv.Available); err != nil {
				log.Printf("[InventoryReconciler] Failed to set %d units at location %d for item %d: %v",
					lv.Available, lv.LocationID, newItemID, err)
				continue
			}
		}

		if err := r.cleanup(ctx, variantID, newItemID); err != nil {
			log.Printf("[InventoryReconciler] Cleanup incomplete for item %d: %v", newItemID, err)
		}
	}
	return nil
}

// cleanup removes level records present on the new inventory item but
// absent from the original capture. New tracked variants get a default
// record at every store location; deleting the extras returns those
// locations to an untracked state rather than leaving a spurious zero.
func (r *InventoryReconciler) cleanup(ctx context.Context, variantID, newItemID int64) error {
	original, err := r.store.OriginalLocations(ctx, variantID)
	if err != nil {
		return err
	}
	current, err := r.api.InventoryLevels(ctx, newItemID)
	if err != nil {
		return err
	}

	for _, lv := range current {
		if _, ok := original[lv.LocationID]; ok {
			continue
		}
		if err := r.api.DeleteInventoryLevel(ctx, newItemID, lv.LocationID); err != nil {
			log.Printf("[InventoryReconciler] Failed to remove injected location %d for item %d: %v",
				lv.LocationID, newItemID, err)
		}
	}
	return nil
}
