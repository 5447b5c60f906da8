package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/lock"
	"shopify-variant-reset/internal/model"
	"shopify-variant-reset/pkg/uid"
)

// DefaultLockKey is the store-wide run lease key.
const DefaultLockKey = "variant-reset:run"

// EngineConfig holds engine construction settings.
type EngineConfig struct {
	// Exclude overrides the default exclusion predicate.
	Exclude ExcludeFunc

	// Locker guards against concurrent runs against the same store.
	// Optional; without it only in-process sequencing is guaranteed.
	Locker  lock.Locker
	LockKey string
	LockTTL time.Duration
}

// Engine processes product IDs strictly sequentially: interleaved calls
// from two products would multiply the effective call rate against the
// platform's per-store ceiling. A failed product aborts only itself; the
// run continues with the next ID.
type Engine struct {
	api       PlatformAPI
	store     backup.Store
	variants  *VariantReconciler
	inventory *InventoryReconciler
	locker    lock.Locker
	lockKey   string
	lockTTL   time.Duration
}

// NewEngine wires the reconcilers around one shared client and store.
func NewEngine(api PlatformAPI, store backup.Store, cfg EngineConfig) *Engine {
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultLockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	return &Engine{
		api:       api,
		store:     store,
		variants:  NewVariantReconciler(api, store, cfg.Exclude),
		inventory: NewInventoryReconciler(api, store),
		locker:    cfg.Locker,
		lockKey:   cfg.LockKey,
		lockTTL:   cfg.LockTTL,
	}
}

// Run resets every product in order and reports per-product outcomes.
// It refuses to start while another run holds the store lease.
func (e *Engine) Run(ctx context.Context, productIDs []int64) (*model.RunReport, error) {
	if e.locker != nil {
		ok, err := e.locker.Acquire(ctx, e.lockKey, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("another run already holds the store lock")
		}
		defer func() {
			if err := e.locker.Release(context.WithoutCancel(ctx), e.lockKey); err != nil {
				log.Printf("[Engine] Failed to release run lock: %v", err)
			}
		}()
	}

	report := &model.RunReport{
		RunID:     uid.New(),
		StartedAt: time.Now(),
	}
	log.Printf("[Engine] Run %s started with %d product(s)", report.RunID, len(productIDs))

	for _, productID := range productIDs {
		// Cancellation is honored between products only: once a product
		// starts it runs to Done or Failed.
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		report.Products = append(report.Products, e.processProduct(ctx, productID))
	}

	report.FinishedAt = time.Now()
	log.Printf("[Engine] Run %s finished: %d product(s), %d failed",
		report.RunID, len(report.Products), report.Failed())
	return report, nil
}

// processProduct runs one product to a terminal state and always discards
// its snapshots afterwards: they are scoped to the run and never reused.
func (e *Engine) processProduct(ctx context.Context, productID int64) model.ProductResult {
	start := time.Now()
	log.Printf("[Engine] Processing product %d", productID)

	defer func() {
		if err := e.store.Discard(context.WithoutCancel(ctx), productID); err != nil {
			log.Printf("[Engine] Failed to discard snapshots for product %d: %v", productID, err)
		}
	}()

	runCtx, out, err := e.variants.Reset(ctx, productID)
	if err != nil {
		log.Printf("[Engine] Product %d failed: %v", productID, err)
		return model.ProductResult{
			ProductID: productID,
			State:     out.State,
			Error:     err.Error(),
			Recreated: out.Recreated,
			Skipped:   out.Skipped,
			Duration:  time.Since(start).String(),
		}
	}

	if err := e.inventory.Restore(ctx, productID, runCtx); err != nil {
		log.Printf("[Engine] Inventory restore failed for product %d: %v", productID, err)
		return model.ProductResult{
			ProductID: productID,
			State:     model.StateFailed,
			Error:     err.Error(),
			Recreated: out.Recreated,
			Skipped:   out.Skipped,
			Duration:  time.Since(start).String(),
		}
	}

	log.Printf("[Engine] Product %d done: %d recreated, %d skipped", productID, out.Recreated, out.Skipped)
	return model.ProductResult{
		ProductID: productID,
		State:     out.State,
		Recreated: out.Recreated,
		Skipped:   out.Skipped,
		Duration:  time.Since(start).String(),
	}
}
