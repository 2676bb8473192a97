package cart

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinelabs/boutiq/internal/statestore"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestManager(t *testing.T) (*Manager, statestore.Store) {
	t.Helper()
	store := statestore.NewMemory()
	mgr, err := NewManager(store, testLogger())
	require.NoError(t, err)
	return mgr, store
}

func mug() ProductInfo {
	return ProductInfo{ID: "p-mug", Name: "Ceramic Mug", Price: decimal.NewFromFloat(18.00)}
}

func candle() ProductInfo {
	return ProductInfo{ID: "p-candle", Name: "Beeswax Candle", Price: decimal.NewFromFloat(12.50)}
}

func TestAddItemAppendsAndMerges(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.AddItem(ctx, mug(), 2)
	mgr.AddItem(ctx, candle(), 1)
	mgr.AddItem(ctx, mug(), 3)

	lines := mgr.Lines()
	require.Len(t, lines, 2)
	// Insertion order holds even after the merge.
	assert.Equal(t, "p-mug", lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, "p-candle", lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestAddItemClampsQuantityToOne(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.AddItem(ctx, mug(), 0)
	mgr.AddItem(ctx, candle(), -5)

	for _, line := range mgr.Lines() {
		assert.Equal(t, 1, line.Quantity)
	}
}

func TestAddItemIgnoresEmptyProductID(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.AddItem(context.Background(), ProductInfo{Name: "ghost"}, 1)
	assert.Empty(t, mgr.Lines())
}

func TestAddItemFiresShowHook(t *testing.T) {
	mgr, _ := newTestManager(t)

	shown := 0
	mgr.SetShowHook(func() { shown++ })

	mgr.AddItem(context.Background(), mug(), 1)
	mgr.AddItem(context.Background(), mug(), 1)
	assert.Equal(t, 2, shown)
}

func TestRemoveItemIsNoOpForAbsentID(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.AddItem(ctx, mug(), 2)
	mgr.RemoveItem(ctx, "p-unknown")
	require.Len(t, mgr.Lines(), 1)

	mgr.RemoveItem(ctx, "p-mug")
	assert.Empty(t, mgr.Lines())
}

func TestUpdateQuantityClampsAndNeverRemoves(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.AddItem(ctx, mug(), 3)

	mgr.UpdateQuantity(ctx, "p-mug", -10)
	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)

	mgr.UpdateQuantity(ctx, "p-mug", 4)
	assert.Equal(t, 5, mgr.Lines()[0].Quantity)

	// Absent id is a no-op.
	mgr.UpdateQuantity(ctx, "p-unknown", 2)
	require.Len(t, mgr.Lines(), 1)
}

func TestAggregates(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.AddItem(ctx, mug(), 2)    // 36.00
	mgr.AddItem(ctx, candle(), 3) // 37.50

	assert.Equal(t, 5, mgr.Count())
	assert.True(t, mgr.Total().Equal(decimal.NewFromFloat(73.50)), "total was %s", mgr.Total())
}

func TestRestoreRoundTrip(t *testing.T) {
	store := statestore.NewMemory()
	ctx := context.Background()

	first, err := NewManager(store, testLogger())
	require.NoError(t, err)
	first.AddItem(ctx, mug(), 2)
	first.AddItem(ctx, candle(), 1)

	second, err := NewManager(store, testLogger())
	require.NoError(t, err)
	second.Restore(ctx)

	require.Len(t, second.Lines(), 2)
	assert.Equal(t, first.Total().String(), second.Total().String())
	assert.Equal(t, 3, second.Count())
}

func TestRestoreMissingSnapshotMeansEmptyCart(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Restore(context.Background())
	assert.Empty(t, mgr.Lines())
}

func TestRestoreCorruptSnapshotStartsEmptyAndDropsKey(t *testing.T) {
	store := statestore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, statestore.KeyCartSnapshot, []byte("{not json")))

	mgr, err := NewManager(store, testLogger())
	require.NoError(t, err)
	mgr.Restore(ctx)

	assert.Empty(t, mgr.Lines())
	_, err = store.Get(ctx, statestore.KeyCartSnapshot)
	assert.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestRestoreSanitizesSnapshot(t *testing.T) {
	store := statestore.NewMemory()
	ctx := context.Background()
	snapshot := `[
		{"productId":"p-mug","name":"Ceramic Mug","unitPrice":"18","quantity":0},
		{"productId":"","name":"ghost","unitPrice":"1","quantity":2},
		{"productId":"p-mug","name":"Ceramic Mug","unitPrice":"18","quantity":4}
	]`
	require.NoError(t, store.Put(ctx, statestore.KeyCartSnapshot, []byte(snapshot)))

	mgr, err := NewManager(store, testLogger())
	require.NoError(t, err)
	mgr.Restore(ctx)

	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p-mug", lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestClearEmptiesCartAndSnapshot(t *testing.T) {
	store := statestore.NewMemory()
	ctx := context.Background()

	mgr, err := NewManager(store, testLogger())
	require.NoError(t, err)
	mgr.AddItem(ctx, mug(), 1)
	mgr.Clear(ctx)

	assert.Empty(t, mgr.Lines())
	assert.True(t, mgr.Total().IsZero())

	restored, err := NewManager(store, testLogger())
	require.NoError(t, err)
	restored.Restore(ctx)
	assert.Empty(t, restored.Lines())
}

func TestLinesReturnsCopy(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()
	mgr.AddItem(ctx, mug(), 1)

	lines := mgr.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, mgr.Lines()[0].Quantity)
}
