// Package catalog stores what connections report during indexing: signals,
// conditions, assets and the inventory of the last index pass.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"simlink.dev/connector/internal/config"
	"simlink.dev/connector/pkg/link"
)

const (
	KindSignal    = "signal"
	KindCondition = "condition"
	KindAsset     = "asset"
)

var ErrUnknownCatalog = errors.New("unknown catalog type")

// Batch is one chunk of a full index pass.
type Batch struct {
	Signals    []link.SignalDefinition
	Conditions []link.ConditionDefinition
	Assets     []link.AssetDefinition
}

func (b Batch) Len() int {
	return len(b.Signals) + len(b.Conditions) + len(b.Assets)
}

type Store interface {
	// GetInventory returns false when the datasource was never indexed.
	GetInventory(ctx context.Context, datasourceID string) (link.Inventory, bool, error)
	PutInventory(ctx context.Context, datasourceID string, inv link.Inventory) error

	// Clear removes every item of the datasource but keeps its inventory.
	Clear(ctx context.Context, datasourceID string) error
	PutItems(ctx context.Context, datasourceID string, batch Batch) error

	Signals(ctx context.Context, datasourceID string) ([]link.SignalDefinition, error)
	Conditions(ctx context.Context, datasourceID string) ([]link.ConditionDefinition, error)
	Assets(ctx context.Context, datasourceID string) ([]link.AssetDefinition, error)

	Close() error
}

// New opens the store selected by conf.Type.
func New(ctx context.Context, conf config.CatalogConf) (Store, error) {
	switch conf.Type {
	case config.CATALOG_BADGER, "":
		return NewBadgerStore(conf.Connection)
	case config.CATALOG_POSTGRES:
		return NewPostgresStore(ctx, conf.Connection, conf.Options)
	case config.CATALOG_AZURE_TABLE:
		return NewAzureTableStore(conf.Connection, conf.Options)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, conf.Type)
}
