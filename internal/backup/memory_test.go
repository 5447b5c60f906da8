package backup

import (
	"context"
	"testing"

	"shopify-variant-reset/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(variantID, productID int64, position int, title string) model.VariantSnapshot {
	s, _ := model.NewVariantSnapshot(model.Variant{
		ID:              variantID,
		ProductID:       productID,
		InventoryItemID: variantID * 100,
		Position:        position,
		Title:           title,
	})
	return s
}

func captureProduct(t *testing.T, store *MemoryStore, productID int64, snaps []model.VariantSnapshot, rows []model.InventorySnapshot) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Begin(ctx, productID))
	require.NoError(t, store.SaveVariants(ctx, snaps))
	require.NoError(t, store.SaveInventory(ctx, rows))
	require.NoError(t, store.Commit(ctx))
}

func TestMemoryStore_PositionOrdering(t *testing.T) {
	store := NewMemoryStore()
	captureProduct(t, store, 101, []model.VariantSnapshot{
		snap(3, 101, 3, "L"),
		snap(1, 101, 1, "S"),
		snap(2, 101, 2, "M"),
	}, nil)

	ctx := context.Background()

	primary, err := store.VariantAtPosition1(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(1), primary.VariantID)

	secondaries, err := store.SecondaryVariants(ctx, 101)
	require.NoError(t, err)
	require.Len(t, secondaries, 2)
	assert.Equal(t, int64(2), secondaries[0].VariantID)
	assert.Equal(t, int64(3), secondaries[1].VariantID)
}

func TestMemoryStore_MissingProduct(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.VariantAtPosition1(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	secondaries, err := store.SecondaryVariants(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, secondaries)
}

func TestMemoryStore_InventoryReadback(t *testing.T) {
	store := NewMemoryStore()
	captureProduct(t, store, 101,
		[]model.VariantSnapshot{snap(1, 101, 1, "S")},
		[]model.InventorySnapshot{
			{VariantID: 1, InventoryItemID: 100, LocationID: 10, Available: 5},
			{VariantID: 1, InventoryItemID: 100, LocationID: 20, Available: 0},
		})

	ctx := context.Background()

	rows, err := store.Levels(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	locations, err := store.OriginalLocations(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{10: {}, 20: {}}, locations)

	qty, err := store.QuantityAt(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, qty, "a captured zero is a real quantity")

	_, err = store.QuantityAt(ctx, 1, 30)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UncommittedRowsInvisible(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 101))
	require.NoError(t, store.SaveVariants(ctx, []model.VariantSnapshot{snap(1, 101, 1, "S")}))

	_, err := store.VariantAtPosition1(ctx, 101)
	assert.ErrorIs(t, err, ErrNotFound, "staged rows must not be readable before Commit")

	require.NoError(t, store.Commit(ctx))
	_, err = store.VariantAtPosition1(ctx, 101)
	assert.NoError(t, err)
}

func TestMemoryStore_SaveOutsideTransactionFails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.SaveVariants(ctx, []model.VariantSnapshot{snap(1, 101, 1, "S")})
	assert.Error(t, err)
	assert.Error(t, store.Commit(ctx))
}

func TestMemoryStore_DiscardDropsEverything(t *testing.T) {
	store := NewMemoryStore()
	captureProduct(t, store, 101,
		[]model.VariantSnapshot{snap(1, 101, 1, "S")},
		[]model.InventorySnapshot{{VariantID: 1, InventoryItemID: 100, LocationID: 10, Available: 5}})
	captureProduct(t, store, 102,
		[]model.VariantSnapshot{snap(7, 102, 1, "S")},
		[]model.InventorySnapshot{{VariantID: 7, InventoryItemID: 700, LocationID: 10, Available: 2}})

	ctx := context.Background()
	require.NoError(t, store.Discard(ctx, 101))

	_, err := store.VariantAtPosition1(ctx, 101)
	assert.ErrorIs(t, err, ErrNotFound)
	rows, err := store.Levels(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Other products are untouched.
	qty, err := store.QuantityAt(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
}

func TestMemoryStore_DiscardAbortsOpenTransaction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 101))
	require.NoError(t, store.SaveVariants(ctx, []model.VariantSnapshot{snap(1, 101, 1, "S")}))
	require.NoError(t, store.Discard(ctx, 101))

	// A new capture for the same product starts clean.
	require.NoError(t, store.Begin(ctx, 101))
	require.NoError(t, store.Commit(ctx))
	_, err := store.VariantAtPosition1(ctx, 101)
	assert.ErrorIs(t, err, ErrNotFound)
}
