package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"simlink.dev/connector/pkg/link"
)

var filterPattern = regexp.MustCompile(`^PartitionKey eq '((?:[^']|'')*)'(?: and Kind eq '((?:[^']|'')*)')?$`)

// memoryTable is a table client keeping entities in memory. It understands
// the filters the store builds and nothing else.
type memoryTable struct {
	mu   sync.Mutex
	rows map[string]map[string][]byte
}

func newMemoryTable() *memoryTable {
	return &memoryTable{rows: make(map[string]map[string][]byte)}
}

func notFound() error {
	return &azcore.ResponseError{StatusCode: http.StatusNotFound}
}

func (m *memoryTable) GetEntity(_ context.Context, partitionKey, rowKey string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.rows[partitionKey][rowKey]
	if !ok {
		return aztables.GetEntityResponse{}, notFound()
	}
	return aztables.GetEntityResponse{Value: raw}, nil
}

func (m *memoryTable) UpsertEntity(_ context.Context, entity []byte, _ *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	var props map[string]any
	if err := json.Unmarshal(entity, &props); err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	pk, _ := props["PartitionKey"].(string)
	rk, _ := props["RowKey"].(string)
	if pk == "" || rk == "" {
		return aztables.UpsertEntityResponse{}, errors.New("missing keys")
	}
	// The service owns the timestamp.
	delete(props, "Timestamp")
	raw, err := json.Marshal(props)
	if err != nil {
		return aztables.UpsertEntityResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[pk] == nil {
		m.rows[pk] = make(map[string][]byte)
	}
	m.rows[pk][rk] = raw
	return aztables.UpsertEntityResponse{}, nil
}

func (m *memoryTable) DeleteEntity(_ context.Context, partitionKey, rowKey string, _ *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[partitionKey][rowKey]; !ok {
		return aztables.DeleteEntityResponse{}, notFound()
	}
	delete(m.rows[partitionKey], rowKey)
	return aztables.DeleteEntityResponse{}, nil
}

func (m *memoryTable) list(filter string) ([][]byte, error) {
	match := filterPattern.FindStringSubmatch(filter)
	if match == nil {
		return nil, fmt.Errorf("unsupported filter %q", filter)
	}
	pk := strings.ReplaceAll(match[1], "''", "'")
	kind := strings.ReplaceAll(match[2], "''", "'")

	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.rows[pk]))
	for rk := range m.rows[pk] {
		keys = append(keys, rk)
	}
	sort.Strings(keys)

	var entities [][]byte
	for _, rk := range keys {
		raw := m.rows[pk][rk]
		if kind != "" {
			var entity itemEntity
			if err := json.Unmarshal(raw, &entity); err != nil {
				return nil, err
			}
			if entity.Kind != kind {
				continue
			}
		}
		entities = append(entities, raw)
	}
	return entities, nil
}

func (m *memoryTable) NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	var filter string
	if options != nil && options.Filter != nil {
		filter = *options.Filter
	}
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(context.Context, *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			entities, err := m.list(filter)
			return aztables.ListEntitiesResponse{Entities: entities}, err
		},
	})
}

func newTestAzureStore() (*AzureTableStore, *memoryTable) {
	inventory := newMemoryTable()
	return &AzureTableStore{items: newMemoryTable(), inventory: inventory}, inventory
}

func TestAzureInventory(t *testing.T) {
	s, table := newTestAzureStore()
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

	var stored inventoryEntity
	require.NoError(t, json.Unmarshal(table.rows["ds"][inventoryRow], &stored))
	require.Equal(t, "9223372036854775815", stored.Checksum)

	table.rows["ds"][inventoryRow] = []byte(`{"PartitionKey":"ds","RowKey":"inventory","Count":"5","Checksum":"-1"}`)
	_, _, err = s.GetInventory(ctx, "ds")
	require.Error(t, err)
}

func TestAzureItems(t *testing.T) {
	s, _ := newTestAzureStore()
	ctx := context.Background()
	batch := testBatch()

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

	renamed := batch.Signals[0]
	renamed.Name = "Renamed"
	require.NoError(t, s.PutItems(ctx, "ds", Batch{Signals: []link.SignalDefinition{renamed}}))
	signals, err = s.Signals(ctx, "ds")
	require.NoError(t, err)
	require.Len(t, signals, 2)
	require.Equal(t, "Renamed", signals[0].Name)

	quoted := []link.AssetDefinition{{DataID: "a/b", Name: "Operator's line"}}
	require.NoError(t, s.PutItems(ctx, "it's", Batch{Assets: quoted}))
	assets, err = s.Assets(ctx, "it's")
	require.NoError(t, err)
	require.Equal(t, quoted, assets)
}

func TestAzureClear(t *testing.T) {
	s, _ := newTestAzureStore()
	ctx := context.Background()

	require.NoError(t, s.PutItems(ctx, "ds", testBatch()))
	require.NoError(t, s.PutItems(ctx, "other", testBatch()))
	require.NoError(t, s.PutInventory(ctx, "ds", link.Inventory{Count: 5}))

	require.NoError(t, s.Clear(ctx, "ds"))

	signals, err := s.Signals(ctx, "ds")
	require.NoError(t, err)
	require.Empty(t, signals)

	_, found, err := s.GetInventory(ctx, "ds")
	require.NoError(t, err)
	require.True(t, found)

	signals, err = s.Signals(ctx, "other")
	require.NoError(t, err)
	require.Len(t, signals, 2)
}

func TestInventoryEntity(t *testing.T) {
	tests := []struct {
		name string
		inv  link.Inventory
	}{
		{"Zero", link.Inventory{}},
		{"Max signed", link.Inventory{Count: 1, Checksum: math.MaxInt64}},
		{"Above max signed", link.Inventory{Count: 2, Checksum: math.MaxInt64 + 1}},
		{"Max unsigned", link.Inventory{Count: math.MaxInt64, Checksum: math.MaxUint64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := newInventoryEntity("ds", tt.inv)
			require.Equal(t, "ds", entity.PartitionKey)
			require.Equal(t, inventoryRow, entity.RowKey)

			got, err := entity.inventory()
			require.NoError(t, err)
			require.Equal(t, tt.inv, got)
		})
	}

	_, err := inventoryEntity{Count: "x", Checksum: "1"}.inventory()
	require.Error(t, err)
	_, err = inventoryEntity{Count: "1", Checksum: "18446744073709551616"}.inventory()
	require.Error(t, err)
}

func TestItemsFilter(t *testing.T) {
	require.Equal(t, "PartitionKey eq 'ds' and Kind eq 'signal'", itemsFilter("ds", KindSignal))
	require.Equal(t, "PartitionKey eq 'it''s' and Kind eq 'asset'", itemsFilter("it's", KindAsset))
}
