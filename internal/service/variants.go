package service

import (
	"context"
	"fmt"
	"log"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/model"
	"shopify-variant-reset/internal/shopify"
)

// Ensure the real client satisfies the reconcilers' contract
var _ PlatformAPI = (*shopify.Client)(nil)

// VariantReconciler rebuilds a product's variant set without ever leaving
// the product variant-less. The platform forbids zero variants, so the
// sequence is: capture everything, delete the secondaries, recreate them,
// and only then delete and recreate the position-1 variant - at that point
// the recreated secondaries keep the product non-empty.
type VariantReconciler struct {
	api     PlatformAPI
	store   backup.Store
	exclude ExcludeFunc
}

// NewVariantReconciler creates a variant reconciler. A nil exclude falls
// back to DefaultExclude.
func NewVariantReconciler(api PlatformAPI, store backup.Store, exclude ExcludeFunc) *VariantReconciler {
	if exclude == nil {
		exclude = DefaultExclude
	}
	return &VariantReconciler{
		api:     api,
		store:   store,
		exclude: exclude,
	}
}

// Outcome summarizes one product's pass through the state machine.
type Outcome struct {
	State     model.ProductState
	Recreated int
	Skipped   int
}

// Reset drives one product from capture through recreation. The returned
// RunContext carries original variant IDs to new inventory item IDs for
// the inventory reconciler. On error the outcome state is Failed and the
// remote product is left in whatever partial state the last successful
// call produced.
func (r *VariantReconciler) Reset(ctx context.Context, productID int64) (*model.RunContext, Outcome, error) {
	runCtx := model.NewRunContext(productID)
	out := Outcome{State: model.StateIdle}

	snaps, err := r.capture(ctx, productID, runCtx)
	if err != nil {
		out.State = model.StateFailed
		return runCtx, out, err
	}
	out.State = model.StateCaptured

	// Guard before touching anything: if every variant is excluded there
	// is no way to finish with a non-empty variant set.
	if len(runCtx.Excluded) == len(snaps) {
		out.State = model.StateFailed
		return runCtx, out, ErrAllVariantsExcluded
	}

	primary, err := r.store.VariantAtPosition1(ctx, productID)
	if err != nil {
		out.State = model.StateFailed
		return runCtx, out, fmt.Errorf("no position-1 variant for product %d: %w", productID, err)
	}
	secondaries, err := r.store.SecondaryVariants(ctx, productID)
	if err != nil {
		out.State = model.StateFailed
		return runCtx, out, err
	}

	// Delete every secondary. A validation rejection leaves the variant
	// in place; remember it so recreation does not duplicate it.
	stillPresent := make(map[int64]bool)
	for _, snap := range secondaries {
		if err := r.api.DeleteVariant(ctx, productID, snap.VariantID); err != nil {
			if shopify.IsValidation(err) {
				log.Printf("[VariantReconciler] Delete rejected for variant %d, leaving in place: %v", snap.VariantID, err)
				stillPresent[snap.VariantID] = true
				out.Skipped++
				continue
			}
			out.State = model.StateFailed
			return runCtx, out, fmt.Errorf("failed to delete variant %d: %w", snap.VariantID, err)
		}
	}
	out.State = model.StateSecondaryDeleted

	// Recreate secondaries in original position order.
	for _, snap := range secondaries {
		if runCtx.Excluded[snap.VariantID] {
			log.Printf("[VariantReconciler] Variant %d (%q) excluded, not recreating", snap.VariantID, snap.Variant.Title)
			out.Skipped++
			continue
		}
		if stillPresent[snap.VariantID] {
			continue
		}
		created, err := r.api.CreateVariant(ctx, productID, snap.CreatePayload())
		if err != nil {
			if shopify.IsValidation(err) {
				log.Printf("[VariantReconciler] Create rejected for variant %d, skipping: %v", snap.VariantID, err)
				out.Skipped++
				continue
			}
			out.State = model.StateFailed
			return runCtx, out, fmt.Errorf("failed to recreate variant %d: %w", snap.VariantID, err)
		}
		runCtx.NewInventoryItemIDs[snap.VariantID] = created.InventoryItemID
		out.Recreated++
	}
	out.State = model.StateSecondaryRecreated

	// The primary may only be deleted while at least one other variant
	// exists on the product.
	survivors := out.Recreated + len(stillPresent)
	if survivors == 0 {
		if runCtx.Excluded[primary.VariantID] {
			out.State = model.StateFailed
			return runCtx, out, ErrNoSurvivors
		}
		// Retaining the primary keeps the product valid; it just is not
		// reset this run.
		log.Printf("[VariantReconciler] No surviving secondaries for product %d, retaining primary variant %d", productID, primary.VariantID)
		out.State = model.StateDone
		return runCtx, out, nil
	}

	if err := r.api.DeleteVariant(ctx, productID, primary.VariantID); err != nil {
		if shopify.IsValidation(err) {
			log.Printf("[VariantReconciler] Delete rejected for primary variant %d, leaving in place: %v", primary.VariantID, err)
			out.Skipped++
			out.State = model.StateDone
			return runCtx, out, nil
		}
		out.State = model.StateFailed
		return runCtx, out, fmt.Errorf("failed to delete primary variant %d: %w", primary.VariantID, err)
	}
	out.State = model.StatePrimaryDeleted

	if runCtx.Excluded[primary.VariantID] {
		log.Printf("[VariantReconciler] Primary variant %d (%q) excluded, not recreating", primary.VariantID, primary.Variant.Title)
		out.Skipped++
		out.State = model.StateDone
		return runCtx, out, nil
	}

	created, err := r.api.CreateVariant(ctx, productID, primary.CreatePayload())
	if err != nil {
		if shopify.IsValidation(err) {
			log.Printf("[VariantReconciler] Create rejected for primary variant %d, skipping: %v", primary.VariantID, err)
			out.Skipped++
			out.State = model.StateDone
			return runCtx, out, nil
		}
		out.State = model.StateFailed
		return runCtx, out, fmt.Errorf("failed to recreate primary variant %d: %w", primary.VariantID, err)
	}
	runCtx.NewInventoryItemIDs[primary.VariantID] = created.InventoryItemID
	out.Recreated++
	out.State = model.StateDone
	return runCtx, out, nil
}

// capture fetches and persists the product's variants and, for tracked
// variants, their per-location quantities. The initial variant fetch is
// fatal; a failed inventory fetch for one variant degrades that variant to
// untracked instead of aborting the product.
func (r *VariantReconciler) capture(ctx context.Context, productID int64, runCtx *model.RunContext) ([]model.VariantSnapshot, error) {
	variants, err := r.api.Variants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch variants for product %d: %w", productID, err)
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}

	if err := r.store.Begin(ctx, productID); err != nil {
		return nil, err
	}

	snaps := make([]model.VariantSnapshot, 0, len(variants))
	for _, v := range variants {
		snap, err := model.NewVariantSnapshot(v)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot variant %d: %w", v.ID, err)
		}
		if r.exclude(snap) {
			runCtx.Excluded[snap.VariantID] = true
		}
		snaps = append(snaps, snap)
	}
	if err := r.store.SaveVariants(ctx, snaps); err != nil {
		return nil, err
	}

	for _, snap := range snaps {
		if !snap.Variant.Tracked() {
			continue
		}
		levels, err := r.api.InventoryLevels(ctx, snap.InventoryItemID)
		if err != nil {
			log.Printf("[VariantReconciler] Inventory capture incomplete for variant %d, treating as untracked: %v", snap.VariantID, err)
			continue
		}
		rows := make([]model.InventorySnapshot, 0, len(levels))
		for _, lv := range levels {
			rows = append(rows, model.InventorySnapshot{
				VariantID:       snap.VariantID,
				InventoryItemID: snap.InventoryItemID,
				LocationID:      lv.LocationID,
				Available:       lv.Available,
			})
		}
		if err := r.store.SaveInventory(ctx, rows); err != nil {
			return nil, err
		}
	}

	if err := r.store.Commit(ctx); err != nil {
		return nil, err
	}
	return snaps, nil
}
