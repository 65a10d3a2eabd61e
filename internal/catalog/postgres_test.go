package catalog

import (
	"context"
	"database/sql"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"simlink.dev/connector/pkg/link"
)

func TestChecksumBigint(t *testing.T) {
	tests := []struct {
		name     string
		checksum uint64
		stored   int64
	}{
		{"Zero", 0, 0},
		{"Max signed", math.MaxInt64, math.MaxInt64},
		{"Above max signed", math.MaxInt64 + 1, math.MinInt64},
		{"Max unsigned", math.MaxUint64, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.stored, checksumToBigint(tt.checksum))
			require.Equal(t, tt.checksum, checksumFromBigint(checksumToBigint(tt.checksum)))
		})
	}
}

func TestDecodeItem(t *testing.T) {
	item, err := decodeItem[link.SignalDefinition]([]byte(`{"DataID":"1","Name":"Simulated Tag #1","InterpolationMethod":"step","MaximumInterpolation":2000000000}`))
	require.NoError(t, err)
	require.Equal(t, link.SignalDefinition{DataID: "1", Name: "Simulated Tag #1", InterpolationMethod: link.Step, MaximumInterpolation: 2 * time.Second}, item)

	_, err = decodeItem[link.SignalDefinition]([]byte(`{"DataID":`))
	require.Error(t, err)
}

func TestApplyPoolOptions(t *testing.T) {
	// Open does not connect.
	db, err := sql.Open("postgres", "postgres://localhost/link?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	applyPoolOptions(db, map[string]string{"max_conn": "7", "max_idle": "2", "max_conn_time": "1m", "unknown": "x"})
	require.Equal(t, 7, db.Stats().MaxOpenConnections)

	applyPoolOptions(db, map[string]string{"max_conn": "many"})
	require.Equal(t, 0, db.Stats().MaxOpenConnections)
}

// TestPostgresStore runs against the database named by LINK_TEST_POSTGRES.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LINK_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("LINK_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, map[string]string{"max_conn": "4"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ds := "test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { s.Clear(context.Background(), ds) })

	inv := link.Inventory{Count: 5, Checksum: 1<<63 + 7}
	require.NoError(t, s.PutInventory(ctx, ds, inv))
	got, found, err := s.GetInventory(ctx, ds)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, inv, got)

	batch := testBatch()
	require.NoError(t, s.PutItems(ctx, ds, batch))
	signals, err := s.Signals(ctx, ds)
	require.NoError(t, err)
	require.Equal(t, batch.Signals, signals)
	assets, err := s.Assets(ctx, ds)
	require.NoError(t, err)
	require.ElementsMatch(t, batch.Assets, assets)

	require.NoError(t, s.Clear(ctx, ds))
	signals, err = s.Signals(ctx, ds)
	require.NoError(t, err)
	require.Empty(t, signals)
}
