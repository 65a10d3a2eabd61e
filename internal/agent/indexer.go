package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"simlink.dev/connector/internal/catalog"
	"simlink.dev/connector/internal/export"
	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
)

// IndexResult describes one index run.
type IndexResult struct {
	Inventory link.Inventory
	// Skipped is set when the inventory matched the catalog and no full pass
	// was needed.
	Skipped bool
	Items   int
}

// Indexer keeps the catalog in line with what connections report.
type Indexer struct {
	store       catalog.Store
	pushgateway *export.Pushgateway
}

// NewIndexer builds an Indexer. pushgateway may be nil.
func NewIndexer(store catalog.Store, pushgateway *export.Pushgateway) *Indexer {
	return &Indexer{store: store, pushgateway: pushgateway}
}

// Run takes an inventory of the connection and compares it with the stored
// one. Only on a difference the catalog entries are replaced by a full pass.
// force skips the comparison. Runs on one connection are serialized; a
// caller waits for the run in progress to finish.
func (ix *Indexer) Run(ctx context.Context, c *Connection, force bool) (IndexResult, error) {
	if err := c.indexing.Acquire(ctx, 1); err != nil {
		return IndexResult{}, err
	}
	defer c.indexing.Release(1)

	id := c.ID()

	started := time.Now()
	inv, err := c.Index(ctx, link.SyncInventory, nil)
	if err != nil {
		return IndexResult{}, fmt.Errorf("inventory pass failed: %w", err)
	}
	ix.push(id, link.SyncInventory, inv.Count, started)

	stored, found, err := ix.store.GetInventory(ctx, id)
	if err != nil {
		return IndexResult{}, err
	}
	if !force && found && stored == inv {
		c.log.Info("Inventory unchanged, skipping full index", slog.Int64("items", inv.Count))
		c.indexed(inv)
		return IndexResult{Inventory: inv, Skipped: true}, nil
	}

	c.log.Info("Inventory changed, running full index",
		slog.Int64("items", inv.Count),
		slog.Int64("stored_items", stored.Count))

	if err := ix.store.Clear(ctx, id); err != nil {
		return IndexResult{}, err
	}

	started = time.Now()
	items := 0
	full, err := c.Index(ctx, link.SyncFull, func(b catalog.Batch) error {
		items += b.Len()
		return ix.store.PutItems(ctx, id, b)
	})
	if err != nil {
		return IndexResult{}, fmt.Errorf("full pass failed: %w", err)
	}

	if err := ix.store.PutInventory(ctx, id, full); err != nil {
		return IndexResult{}, err
	}
	ix.push(id, link.SyncFull, full.Count, started)
	c.indexed(full)

	c.log.Info("Index finished", slog.Int("items", items), slog.Duration("took", time.Since(started)))
	return IndexResult{Inventory: full, Items: items}, nil
}

func (ix *Indexer) push(datasourceID string, mode link.SyncMode, items int64, started time.Time) {
	if ix.pushgateway == nil {
		return
	}
	err := ix.pushgateway.Push(export.IndexStats{
		DatasourceID: datasourceID,
		Mode:         string(mode),
		Items:        items,
		Duration:     time.Since(started),
		Finished:     time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to push index stats", slog.String("datasource", datasourceID), slog.Any("error", err))
	}
}
