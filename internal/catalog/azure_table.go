package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	json "github.com/goccy/go-json"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
)

const (
	catalogTable   = "linkcatalog"
	inventoryTable = "linkinventory"
	inventoryRow   = "inventory"
)

type itemEntity struct {
	aztables.Entity
	Kind    string
	DataID  string
	Name    string
	Payload string
}

// Edm.Int64 values need an odata annotation, so counters travel as strings.
type inventoryEntity struct {
	aztables.Entity
	Count    string
	Checksum string
}

func newInventoryEntity(datasourceID string, inv link.Inventory) inventoryEntity {
	return inventoryEntity{
		Entity: aztables.Entity{
			PartitionKey: datasourceID,
			RowKey:       inventoryRow,
		},
		Count:    strconv.FormatInt(inv.Count, 10),
		Checksum: strconv.FormatUint(inv.Checksum, 10),
	}
}

func (e inventoryEntity) inventory() (link.Inventory, error) {
	count, err := strconv.ParseInt(e.Count, 10, 64)
	if err != nil {
		return link.Inventory{}, fmt.Errorf("inventory count: %w", err)
	}
	checksum, err := strconv.ParseUint(e.Checksum, 10, 64)
	if err != nil {
		return link.Inventory{}, fmt.Errorf("inventory checksum: %w", err)
	}
	return link.Inventory{Count: count, Checksum: checksum}, nil
}

// tableClient is the part of *aztables.Client the store uses.
type tableClient interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// AzureTableStore keeps the catalog in Azure Table Storage, one partition
// per datasource.
type AzureTableStore struct {
	items     tableClient
	inventory tableClient
}

// NewAzureTableStore connects with a SAS URL. Setting the option
// create_tables to "false" skips table creation.
func NewAzureTableStore(connection string, options map[string]string) (*AzureTableStore, error) {
	service, err := aztables.NewServiceClientWithNoCredential(connection, nil)
	if err != nil {
		return nil, err
	}
	items, inventory := service.NewClient(catalogTable), service.NewClient(inventoryTable)
	s := &AzureTableStore{items: items, inventory: inventory}

	if options["create_tables"] != "false" {
		for _, client := range []*aztables.Client{items, inventory} {
			if _, err := client.CreateTable(context.Background(), nil); err != nil && !isStatus(err, http.StatusConflict) {
				return nil, err
			}
		}
	}
	return s, nil
}

func isStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func rowKey(kind, dataID string) string {
	// Row keys may not contain '/', '\\', '#' or '?'.
	return kind + "_" + url.PathEscape(dataID)
}

func partitionFilter(datasourceID string) *string {
	return to.Ptr(fmt.Sprintf("PartitionKey eq '%s'", escapeODataString(datasourceID)))
}

func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (s *AzureTableStore) GetInventory(ctx context.Context, datasourceID string) (link.Inventory, bool, error) {
	resp, err := s.inventory.GetEntity(ctx, datasourceID, inventoryRow, nil)
	if isStatus(err, http.StatusNotFound) {
		return link.Inventory{}, false, nil
	}
	if err != nil {
		return link.Inventory{}, false, err
	}

	var entity inventoryEntity
	if err := json.Unmarshal(resp.Value, &entity); err != nil {
		return link.Inventory{}, false, err
	}
	inv, err := entity.inventory()
	if err != nil {
		return link.Inventory{}, false, err
	}
	return inv, true, nil
}

func (s *AzureTableStore) PutInventory(ctx context.Context, datasourceID string, inv link.Inventory) error {
	marshalled, err := json.Marshal(newInventoryEntity(datasourceID, inv))
	if err != nil {
		return err
	}
	_, err = s.inventory.UpsertEntity(ctx, marshalled, nil)
	return err
}

func (s *AzureTableStore) Clear(ctx context.Context, datasourceID string) error {
	pager := s.items.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: partitionFilter(datasourceID),
		Select: to.Ptr("PartitionKey,RowKey"),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, raw := range page.Entities {
			var entity aztables.Entity
			if err := json.Unmarshal(raw, &entity); err != nil {
				return err
			}
			if _, err := s.items.DeleteEntity(ctx, entity.PartitionKey, entity.RowKey, nil); err != nil && !isStatus(err, http.StatusNotFound) {
				return err
			}
		}
	}
	return nil
}

func (s *AzureTableStore) put(ctx context.Context, datasourceID, kind, dataID, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	marshalled, err := json.Marshal(itemEntity{
		Entity: aztables.Entity{
			PartitionKey: datasourceID,
			RowKey:       rowKey(kind, dataID),
		},
		Kind:    kind,
		DataID:  dataID,
		Name:    name,
		Payload: string(payload),
	})
	if err != nil {
		return err
	}
	_, err = s.items.UpsertEntity(ctx, marshalled, nil)
	return err
}

func (s *AzureTableStore) PutItems(ctx context.Context, datasourceID string, batch Batch) error {
	var failed int
	for _, signal := range batch.Signals {
		if err := s.put(ctx, datasourceID, KindSignal, signal.DataID, signal.Name, signal); err != nil {
			logger.Error("Failed to save entity", slog.String("kind", KindSignal), slog.Any("error", err))
			failed++
		}
	}
	for _, condition := range batch.Conditions {
		if err := s.put(ctx, datasourceID, KindCondition, condition.DataID, condition.Name, condition); err != nil {
			logger.Error("Failed to save entity", slog.String("kind", KindCondition), slog.Any("error", err))
			failed++
		}
	}
	for _, asset := range batch.Assets {
		if err := s.put(ctx, datasourceID, KindAsset, asset.DataID, asset.Name, asset); err != nil {
			logger.Error("Failed to save entity", slog.String("kind", KindAsset), slog.Any("error", err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d of %d catalog entities", failed, batch.Len())
	}
	return nil
}

func itemsFilter(datasourceID, kind string) string {
	return fmt.Sprintf("PartitionKey eq '%s' and Kind eq '%s'", escapeODataString(datasourceID), escapeODataString(kind))
}

func listEntities[T any](ctx context.Context, client tableClient, datasourceID, kind string) ([]T, error) {
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: to.Ptr(itemsFilter(datasourceID, kind))})

	var items []T
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Entities {
			var entity itemEntity
			if err := json.Unmarshal(raw, &entity); err != nil {
				return nil, err
			}
			var item T
			if err := json.Unmarshal([]byte(entity.Payload), &item); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *AzureTableStore) Signals(ctx context.Context, datasourceID string) ([]link.SignalDefinition, error) {
	return listEntities[link.SignalDefinition](ctx, s.items, datasourceID, KindSignal)
}

func (s *AzureTableStore) Conditions(ctx context.Context, datasourceID string) ([]link.ConditionDefinition, error) {
	return listEntities[link.ConditionDefinition](ctx, s.items, datasourceID, KindCondition)
}

func (s *AzureTableStore) Assets(ctx context.Context, datasourceID string) ([]link.AssetDefinition, error) {
	return listEntities[link.AssetDefinition](ctx, s.items, datasourceID, KindAsset)
}

func (s *AzureTableStore) Close() error {
	return nil
}
