package backup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopify-variant-reset/internal/model"
)

// MemoryStore is an in-memory implementation of Store.
// Use this for tests and dry runs where no database is available.
type MemoryStore struct {
	mu sync.RWMutex

	// staged rows, promoted on Commit
	pendingProduct   int64
	pendingVariants  []model.VariantSnapshot
	pendingInventory []model.InventorySnapshot

	variants  map[int64][]model.VariantSnapshot // productID -> snapshots
	inventory map[int64][]model.InventorySnapshot
}

// NewMemoryStore creates an empty in-memory backup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		variants:  make(map[int64][]model.VariantSnapshot),
		inventory: make(map[int64][]model.InventorySnapshot),
	}
}

// Begin opens the capture transaction for a product.
func (m *MemoryStore) Begin(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingProduct != 0 {
		return fmt.Errorf("capture transaction already open")
	}
	m.pendingProduct = productID
	m.pendingVariants = nil
	m.pendingInventory = nil
	return nil
}

// SaveVariants stages one snapshot per variant.
func (m *MemoryStore) SaveVariants(ctx context.Context, snaps []model.VariantSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingProduct == 0 {
		return fmt.Errorf("no capture transaction open")
	}
	m.pendingVariants = append(m.pendingVariants, snaps...)
	return nil
}

// SaveInventory stages captured (location, quantity) rows.
func (m *MemoryStore) SaveInventory(ctx context.Context, rows []model.InventorySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingProduct == 0 {
		return fmt.Errorf("no capture transaction open")
	}
	m.pendingInventory = append(m.pendingInventory, rows...)
	return nil
}

// Commit promotes staged rows for read-back.
func (m *MemoryStore) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingProduct == 0 {
		return fmt.Errorf("no capture transaction open")
	}
	m.variants[m.pendingProduct] = append(m.variants[m.pendingProduct], m.pendingVariants...)
	for _, row := range m.pendingInventory {
		m.inventory[row.VariantID] = append(m.inventory[row.VariantID], row)
	}
	m.pendingProduct = 0
	m.pendingVariants = nil
	m.pendingInventory = nil
	return nil
}

// VariantAtPosition1 returns the snapshot at original position 1.
func (m *MemoryStore) VariantAtPosition1(ctx context.Context, productID int64) (model.VariantSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, snap := range m.variants[productID] {
		if snap.Position == 1 {
			return snap, nil
		}
	}
	return model.VariantSnapshot{}, ErrNotFound
}

// SecondaryVariants returns snapshots ordered by original position,
// excluding position 1.
func (m *MemoryStore) SecondaryVariants(ctx context.Context, productID int64) ([]model.VariantSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snaps []model.VariantSnapshot
	for _, snap := range m.variants[productID] {
		if snap.Position != 1 {
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Position < snaps[j].Position })
	return snaps, nil
}

// Levels returns all captured inventory rows for a variant.
func (m *MemoryStore) Levels(ctx context.Context, variantID int64) ([]model.InventorySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.inventory[variantID]
	out := make([]model.InventorySnapshot, len(rows))
	copy(out, rows)
	return out, nil
}

// OriginalLocations returns the set of locations captured for a variant.
func (m *MemoryStore) OriginalLocations(ctx context.Context, variantID int64) (map[int64]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[int64]struct{})
	for _, row := range m.inventory[variantID] {
		set[row.LocationID] = struct{}{}
	}
	return set, nil
}

// QuantityAt returns the captured quantity for one (variant, location) pair.
func (m *MemoryStore) QuantityAt(ctx context.Context, variantID, locationID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.inventory[variantID] {
		if row.LocationID == locationID {
			return row.Available, nil
		}
	}
	return 0, ErrNotFound
}

// Discard drops all snapshot rows for a product.
func (m *MemoryStore) Discard(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingProduct == productID {
		m.pendingProduct = 0
		m.pendingVariants = nil
		m.pendingInventory = nil
	}
	for _, snap := range m.variants[productID] {
		delete(m.inventory, snap.VariantID)
	}
	delete(m.variants, productID)
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
