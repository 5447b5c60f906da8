package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"shopify-variant-reset/internal/model"
	"shopify-variant-reset/internal/shopify"
)

// fakePlatform imitates the remote product/inventory API closely enough to
// exercise the reconcilers: it refuses to delete the last variant of a
// product and auto-injects stock records at every known location when a
// tracked variant is created.
type fakePlatform struct {
	mu sync.Mutex

	variants map[int64][]model.Variant        // productID -> current variants
	levels   map[int64][]model.InventoryLevel // inventoryItemID -> current levels
	nextID   int64

	// knownLocations are injected (at zero) for every created tracked variant.
	knownLocations []int64

	calls []string

	failVariantsFetch error
	failLevelsFetch   map[int64]error // inventoryItemID -> error
	failDelete        map[int64]error // variantID -> error
	failCreateTitle   map[string]error
	failSetLocation   map[int64]error // locationID -> error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		variants:        make(map[int64][]model.Variant),
		levels:          make(map[int64][]model.InventoryLevel),
		nextID:          1000,
		failLevelsFetch: make(map[int64]error),
		failDelete:      make(map[int64]error),
		failCreateTitle: make(map[string]error),
		failSetLocation: make(map[int64]error),
	}
}

func validationErr(msg string) error {
	return &shopify.APIError{
		Class:      shopify.ClassValidation,
		StatusCode: http.StatusUnprocessableEntity,
		Body:       []byte(msg),
	}
}

func transportErr(msg string) error {
	return &shopify.APIError{
		Class:      shopify.ClassTransport,
		StatusCode: http.StatusInternalServerError,
		Body:       []byte(msg),
	}
}

func (f *fakePlatform) addVariant(productID int64, v model.Variant) model.Variant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addVariantLocked(productID, v)
}

func (f *fakePlatform) addVariantLocked(productID int64, v model.Variant) model.Variant {
	f.nextID++
	v.ID = f.nextID
	v.ProductID = productID
	f.nextID++
	v.InventoryItemID = f.nextID
	if v.Position == 0 {
		v.Position = len(f.variants[productID]) + 1
	}
	f.variants[productID] = append(f.variants[productID], v)
	return v
}

func (f *fakePlatform) setLevels(inventoryItemID int64, levels ...model.InventoryLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range levels {
		levels[i].InventoryItemID = inventoryItemID
	}
	f.levels[inventoryItemID] = levels
}

func (f *fakePlatform) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePlatform) Variants(ctx context.Context, productID int64) ([]model.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("variants %d", productID)
	if f.failVariantsFetch != nil {
		return nil, f.failVariantsFetch
	}
	out := make([]model.Variant, len(f.variants[productID]))
	copy(out, f.variants[productID])
	return out, nil
}

func (f *fakePlatform) CreateVariant(ctx context.Context, productID int64, v model.Variant) (model.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create %d %q", productID, v.Title)
	if err := f.failCreateTitle[v.Title]; err != nil {
		return model.Variant{}, err
	}
	created := f.addVariantLocked(productID, v)
	if created.Tracked() {
		// The platform seeds a zero-quantity record at every location.
		for _, loc := range f.knownLocations {
			f.levels[created.InventoryItemID] = append(f.levels[created.InventoryItemID], model.InventoryLevel{
				InventoryItemID: created.InventoryItemID,
				LocationID:      loc,
				Available:       0,
			})
		}
	}
	return created, nil
}

func (f *fakePlatform) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete %d %d", productID, variantID)
	if err := f.failDelete[variantID]; err != nil {
		return err
	}
	current := f.variants[productID]
	if len(current) <= 1 {
		return validationErr("cannot delete the only variant of a product")
	}
	for i, v := range current {
		if v.ID == variantID {
			f.variants[productID] = append(current[:i:i], current[i+1:]...)
			delete(f.levels, v.InventoryItemID)
			return nil
		}
	}
	return transportErr("variant not found")
}

func (f *fakePlatform) InventoryLevels(ctx context.Context, inventoryItemID int64) ([]model.InventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("levels %d", inventoryItemID)
	if err := f.failLevelsFetch[inventoryItemID]; err != nil {
		return nil, err
	}
	out := make([]model.InventoryLevel, len(f.levels[inventoryItemID]))
	copy(out, f.levels[inventoryItemID])
	return out, nil
}

func (f *fakePlatform) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set %d %d %d", inventoryItemID, locationID, available)
	if err := f.failSetLocation[locationID]; err != nil {
		return err
	}
	for i, lv := range f.levels[inventoryItemID] {
		if lv.LocationID == locationID {
			f.levels[inventoryItemID][i].Available = available
			return nil
		}
	}
	f.levels[inventoryItemID] = append(f.levels[inventoryItemID], model.InventoryLevel{
		InventoryItemID: inventoryItemID,
		LocationID:      locationID,
		Available:       available,
	})
	return nil
}

func (f *fakePlatform) DeleteInventoryLevel(ctx context.Context, inventoryItemID, locationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unset %d %d", inventoryItemID, locationID)
	for i, lv := range f.levels[inventoryItemID] {
		if lv.LocationID == locationID {
			f.levels[inventoryItemID] = append(f.levels[inventoryItemID][:i:i], f.levels[inventoryItemID][i+1:]...)
			return nil
		}
	}
	return nil
}

// currentVariants returns a copy of the product's variant list.
func (f *fakePlatform) currentVariants(productID int64) []model.Variant {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Variant, len(f.variants[productID]))
	copy(out, f.variants[productID])
	return out
}

// currentLevels returns a copy of an item's levels.
func (f *fakePlatform) currentLevels(inventoryItemID int64) []model.InventoryLevel {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.InventoryLevel, len(f.levels[inventoryItemID]))
	copy(out, f.levels[inventoryItemID])
	return out
}

var _ PlatformAPI = (*fakePlatform)(nil)
