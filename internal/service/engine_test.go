package service

import (
	"context"
	"testing"
	"time"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/lock"
	"shopify-variant-reset/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario from the operational playbook: V1(pos1, L1:5) and
// V2(pos2, L1:3, L2:0), three locations known to the store. After the run
// the product has exactly two variants, quantities are restored exactly,
// and the injected L3 records are gone from both.
func TestEngine_FullResetRestoresInventory(t *testing.T) {
	f := newFakePlatform()
	f.knownLocations = []int64{1, 2, 3}
	seeded := seedProduct(f, 101, "V1", "V2")
	f.setLevels(seeded[0].InventoryItemID, model.InventoryLevel{LocationID: 1, Available: 5})
	f.setLevels(seeded[1].InventoryItemID,
		model.InventoryLevel{LocationID: 1, Available: 3},
		model.InventoryLevel{LocationID: 2, Available: 0},
	)

	store := backup.NewMemoryStore()
	engine := NewEngine(f, store, EngineConfig{})

	report, err := engine.Run(context.Background(), []int64{101})
	require.NoError(t, err)
	require.Len(t, report.Products, 1)
	assert.Equal(t, model.StateDone, report.Products[0].State)
	assert.Equal(t, 2, report.Products[0].Recreated)

	final := f.currentVariants(101)
	require.Len(t, final, 2)

	byTitle := make(map[string]model.Variant)
	for _, v := range final {
		byTitle[v.Title] = v
	}

	v1Levels := levelMap(f.currentLevels(byTitle["V1"].InventoryItemID))
	assert.Equal(t, map[int64]int{1: 5}, v1Levels, "V1 must hold only its original location")

	v2Levels := levelMap(f.currentLevels(byTitle["V2"].InventoryItemID))
	assert.Equal(t, map[int64]int{1: 3, 2: 0}, v2Levels, "V2 must keep its zero at L2 and lose L3")
}

func TestEngine_ExcludedVariantSkippedEntirely(t *testing.T) {
	f := newFakePlatform()
	f.knownLocations = []int64{1}
	seeded := seedProduct(f, 101, "V1", "V2 perso edition")
	f.setLevels(seeded[0].InventoryItemID, model.InventoryLevel{LocationID: 1, Available: 5})
	f.setLevels(seeded[1].InventoryItemID, model.InventoryLevel{LocationID: 1, Available: 3})

	store := backup.NewMemoryStore()
	engine := NewEngine(f, store, EngineConfig{})

	report, err := engine.Run(context.Background(), []int64{101})
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, report.Products[0].State)

	final := f.currentVariants(101)
	require.Len(t, final, 1)
	assert.Equal(t, "V1", final[0].Title)

	// Running again keeps the excluded variant absent.
	report, err = engine.Run(context.Background(), []int64{101})
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, report.Products[0].State)
	assert.Len(t, f.currentVariants(101), 1)
}

func TestEngine_FailedProductDoesNotAbortRun(t *testing.T) {
	f := newFakePlatform()
	seedProduct(f, 101, "perso a", "perso b") // all excluded -> fails
	seedProduct(f, 102, "S", "M")

	store := backup.NewMemoryStore()
	engine := NewEngine(f, store, EngineConfig{})

	report, err := engine.Run(context.Background(), []int64{101, 102})
	require.NoError(t, err)
	require.Len(t, report.Products, 2)

	assert.Equal(t, model.StateFailed, report.Products[0].State)
	assert.Contains(t, report.Products[0].Error, "exclusion")
	assert.Equal(t, model.StateDone, report.Products[1].State)

	// The failed product keeps its pre-run variants.
	assert.Len(t, f.currentVariants(101), 2)
	assert.Len(t, f.currentVariants(102), 2)
}

func TestEngine_SnapshotsDiscardedAfterProduct(t *testing.T) {
	f := newFakePlatform()
	seeded := seedProduct(f, 101, "S", "M")

	store := backup.NewMemoryStore()
	engine := NewEngine(f, store, EngineConfig{})

	_, err := engine.Run(context.Background(), []int64{101})
	require.NoError(t, err)

	// Snapshots are run-scoped; nothing survives for reuse.
	_, err = store.VariantAtPosition1(context.Background(), 101)
	assert.ErrorIs(t, err, backup.ErrNotFound)
	rows, err := store.Levels(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEngine_RefusesConcurrentRun(t *testing.T) {
	f := newFakePlatform()
	seedProduct(f, 101, "S", "M")

	locker := lock.NewMemoryLocker()
	held, err := locker.Acquire(context.Background(), DefaultLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	engine := NewEngine(f, backup.NewMemoryStore(), EngineConfig{Locker: locker})
	_, err = engine.Run(context.Background(), []int64{101})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock")

	// After release the engine runs normally.
	require.NoError(t, locker.Release(context.Background(), DefaultLockKey))
	report, err := engine.Run(context.Background(), []int64{101})
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, report.Products[0].State)
}

func TestEngine_StopsBetweenProductsOnCancel(t *testing.T) {
	f := newFakePlatform()
	seedProduct(f, 101, "S", "M")
	seedProduct(f, 102, "S", "M")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(f, backup.NewMemoryStore(), EngineConfig{})
	report, err := engine.Run(ctx, []int64{101, 102})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Products)
}

func levelMap(levels []model.InventoryLevel) map[int64]int {
	out := make(map[int64]int)
	for _, lv := range levels {
		out[lv.LocationID] = lv.Available
	}
	return out
}
