package catalog

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
)

// BadgerStore keeps the catalog in a local BadgerDB. Values are gob encoded
// under keys of the form <datasource>/<kind>/<data id>.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(logger.Default()))
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened BadgerDB catalog", slog.String("path", dir))
	return &BadgerStore{db: db}, nil
}

// NewInMemoryBadgerStore is a BadgerStore that never touches disk.
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(logger.Default()))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func itemKey(datasourceID, kind, dataID string) []byte {
	return []byte(datasourceID + "/" + kind + "/" + dataID)
}

func kindPrefix(datasourceID, kind string) []byte {
	return []byte(datasourceID + "/" + kind + "/")
}

func inventoryKey(datasourceID string) []byte {
	return []byte(datasourceID + "/inventory")
}

func encode(v any) ([]byte, error) {
	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(v); err != nil {
		return nil, err
	}
	return value.Bytes(), nil
}

func decode[T any](val []byte) (T, error) {
	var t T
	err := gob.NewDecoder(bytes.NewReader(val)).Decode(&t)
	return t, err
}

func (s *BadgerStore) GetInventory(ctx context.Context, datasourceID string) (inv link.Inventory, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(inventoryKey(datasourceID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			inv, err = decode[link.Inventory](val)
			found = err == nil
			return err
		})
	})
	return inv, found, err
}

func (s *BadgerStore) PutInventory(ctx context.Context, datasourceID string, inv link.Inventory) error {
	val, err := encode(inv)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(inventoryKey(datasourceID), val)
	})
}

func (s *BadgerStore) Clear(ctx context.Context, datasourceID string) error {
	return s.db.DropPrefix(
		kindPrefix(datasourceID, KindSignal),
		kindPrefix(datasourceID, KindCondition),
		kindPrefix(datasourceID, KindAsset),
	)
}

func (s *BadgerStore) PutItems(ctx context.Context, datasourceID string, batch Batch) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	put := func(kind, dataID string, v any) error {
		val, err := encode(v)
		if err != nil {
			return err
		}
		return wb.Set(itemKey(datasourceID, kind, dataID), val)
	}

	for _, signal := range batch.Signals {
		if err := put(KindSignal, signal.DataID, signal); err != nil {
			return err
		}
	}
	for _, condition := range batch.Conditions {
		if err := put(KindCondition, condition.DataID, condition); err != nil {
			return err
		}
	}
	for _, asset := range batch.Assets {
		if err := put(KindAsset, asset.DataID, asset); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func list[T any](db *badger.DB, prefix []byte) (items []T, err error) {
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			decoded, err := decode[T](val)
			if err != nil {
				logger.Error("Failed to decode catalog entry",
					slog.String("key", string(it.Item().Key())), slog.Any("error", err))
				continue
			}
			items = append(items, decoded)
		}
		return nil
	})
	return
}

func (s *BadgerStore) Signals(ctx context.Context, datasourceID string) ([]link.SignalDefinition, error) {
	return list[link.SignalDefinition](s.db, kindPrefix(datasourceID, KindSignal))
}

func (s *BadgerStore) Conditions(ctx context.Context, datasourceID string) ([]link.ConditionDefinition, error) {
	return list[link.ConditionDefinition](s.db, kindPrefix(datasourceID, KindCondition))
}

func (s *BadgerStore) Assets(ctx context.Context, datasourceID string) ([]link.AssetDefinition, error) {
	return list[link.AssetDefinition](s.db, kindPrefix(datasourceID, KindAsset))
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
