package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"simlink.dev/connector/internal/config"
	"simlink.dev/connector/pkg/link"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testBatch() Batch {
	return Batch{
		Signals: []link.SignalDefinition{
			{DataID: "1", Name: "Simulated Tag #1", AssetID: "area-1", InterpolationMethod: link.Step, MaximumInterpolation: 2 * time.Second},
			{DataID: "2", Name: "Simulated Tag #2", AssetID: "area-1", InterpolationMethod: link.Linear},
		},
		Conditions: []link.ConditionDefinition{
			{DataID: "1", Name: "Simulated Tag #1 Alarm", MaximumDuration: time.Minute},
		},
		Assets: []link.AssetDefinition{
			{DataID: "root", Name: "Simulator"},
			{DataID: "area-1", Name: "Area 1", ParentID: "root"},
		},
	}
}

func TestBadgerInventory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.GetInventory(ctx, "ds")
	require.NoError(t, err)
	require.False(t, found)

	inv := link.Inventory{Count: 5, Checksum: 1<<63 + 7}
	require.NoError(t, s.PutInventory(ctx, "ds", inv))

	got, found, err := s.GetInventory(ctx, "ds")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, inv, got)
}

func TestBadgerItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	batch := testBatch()

	require.Equal(t, 5, batch.Len())
	require.NoError(t, s.PutItems(ctx, "ds", batch))
	require.NoError(t, s.PutItems(ctx, "other", Batch{Signals: batch.Signals[:1]}))

	signals, err := s.Signals(ctx, "ds")
	require.NoError(t, err)
	require.Equal(t, batch.Signals, signals)

	conditions, err := s.Conditions(ctx, "ds")
	require.NoError(t, err)
	require.Equal(t, batch.Conditions, conditions)

	assets, err := s.Assets(ctx, "ds")
	require.NoError(t, err)
	require.ElementsMatch(t, batch.Assets, assets)

	// Writing the same data id again replaces the entry.
	renamed := batch.Signals[0]
	renamed.Name = "Renamed"
	require.NoError(t, s.PutItems(ctx, "ds", Batch{Signals: []link.SignalDefinition{renamed}}))
	signals, err = s.Signals(ctx, "ds")
	require.NoError(t, err)
	require.Len(t, signals, 2)
	require.Equal(t, "Renamed", signals[0].Name)
}

func TestBadgerClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutItems(ctx, "ds", testBatch()))
	require.NoError(t, s.PutItems(ctx, "other", testBatch()))
	require.NoError(t, s.PutInventory(ctx, "ds", link.Inventory{Count: 5}))

	require.NoError(t, s.Clear(ctx, "ds"))

	signals, err := s.Signals(ctx, "ds")
	require.NoError(t, err)
	require.Empty(t, signals)
	assets, err := s.Assets(ctx, "ds")
	require.NoError(t, err)
	require.Empty(t, assets)

	_, found, err := s.GetInventory(ctx, "ds")
	require.NoError(t, err)
	require.True(t, found)

	signals, err = s.Signals(ctx, "other")
	require.NoError(t, err)
	require.Len(t, signals, 2)
}

func TestNewUnknown(t *testing.T) {
	_, err := New(context.Background(), config.CatalogConf{Type: "FNORD"})
	require.ErrorIs(t, err, ErrUnknownCatalog)
}

func TestNewBadger(t *testing.T) {
	s, err := New(context.Background(), config.CatalogConf{Type: config.CATALOG_BADGER, Connection: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestAzureRowKey(t *testing.T) {
	require.Equal(t, "signal_a%2Fb%3Fc", rowKey(KindSignal, "a/b?c"))
	require.Equal(t, "it''s", escapeODataString("it's"))
}
