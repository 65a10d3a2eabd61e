package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
)

const schema = `
CREATE TABLE IF NOT EXISTS link_catalog (
	datasource_id TEXT NOT NULL,
	kind          TEXT NOT NULL,
	data_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	payload       JSONB NOT NULL,
	PRIMARY KEY (datasource_id, kind, data_id)
);
CREATE TABLE IF NOT EXISTS link_inventory (
	datasource_id TEXT PRIMARY KEY,
	item_count    BIGINT NOT NULL,
	checksum      BIGINT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);`

const (
	upsertItem = `INSERT INTO link_catalog (datasource_id, kind, data_id, name, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (datasource_id, kind, data_id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload`
	upsertInventory = `INSERT INTO link_inventory (datasource_id, item_count, checksum, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (datasource_id) DO UPDATE SET item_count = EXCLUDED.item_count, checksum = EXCLUDED.checksum, updated_at = EXCLUDED.updated_at`
	selectInventory = `SELECT item_count, checksum FROM link_inventory WHERE datasource_id = $1`
	deleteItems     = `DELETE FROM link_catalog WHERE datasource_id = $1`
	selectItems     = `SELECT payload FROM link_catalog WHERE datasource_id = $1 AND kind = $2 ORDER BY data_id`
)

var connectionStats = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "link_catalog_psql_connection_stats",
	Help: "Connection stats related to the PostgreSQL catalog",
}, []string{"conn"})

// PostgresStore keeps the catalog in two PostgreSQL tables. Items are stored
// as JSONB so the schema does not follow the definition types.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, connection string, options map[string]string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	applyPoolOptions(db, options)

	s := &PostgresStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.updateStats()
	logger.Info("PostgreSQL catalog initialized")
	return s, nil
}

// applyPoolOptions sets the connection pool limits named in options.
// Unparsable values fall back to zero, which database/sql treats as unlimited.
func applyPoolOptions(db *sql.DB, options map[string]string) {
	for opt, val := range options {
		switch opt {
		case "max_conn":
			maxconn, _ := strconv.Atoi(val)
			db.SetMaxOpenConns(maxconn)
		case "max_idle":
			maxidle, _ := strconv.Atoi(val)
			db.SetMaxIdleConns(maxidle)
		case "max_conn_time":
			dur, _ := time.ParseDuration(val)
			db.SetConnMaxLifetime(dur)
		case "max_idle_time":
			dur, _ := time.ParseDuration(val)
			db.SetConnMaxIdleTime(dur)
		}
	}
}

// BIGINT is signed; the checksum is stored with the same bits.
func checksumToBigint(checksum uint64) int64 {
	return int64(checksum)
}

func checksumFromBigint(v int64) uint64 {
	return uint64(v)
}

func decodeItem[T any](payload []byte) (T, error) {
	var item T
	err := json.Unmarshal(payload, &item)
	return item, err
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) updateStats() {
	stats := s.db.Stats()
	connectionStats.WithLabelValues("idle").Set(float64(stats.Idle))
	connectionStats.WithLabelValues("used").Set(float64(stats.InUse))
	connectionStats.WithLabelValues("max").Set(float64(stats.MaxOpenConnections))
}

func (s *PostgresStore) GetInventory(ctx context.Context, datasourceID string) (link.Inventory, bool, error) {
	var (
		inv      link.Inventory
		checksum int64
	)
	err := s.db.QueryRowContext(ctx, selectInventory, datasourceID).Scan(&inv.Count, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return link.Inventory{}, false, nil
	}
	if err != nil {
		return link.Inventory{}, false, err
	}
	inv.Checksum = checksumFromBigint(checksum)
	return inv, true, nil
}

func (s *PostgresStore) PutInventory(ctx context.Context, datasourceID string, inv link.Inventory) error {
	_, err := s.db.ExecContext(ctx, upsertInventory, datasourceID, inv.Count, checksumToBigint(inv.Checksum), time.Now().UTC())
	return err
}

func (s *PostgresStore) Clear(ctx context.Context, datasourceID string) error {
	_, err := s.db.ExecContext(ctx, deleteItems, datasourceID)
	return err
}

func (s *PostgresStore) PutItems(ctx context.Context, datasourceID string, batch Batch) error {
	s.updateStats()
	defer s.updateStats()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := txn.PrepareContext(ctx, upsertItem)
	if err != nil {
		txn.Rollback()
		return err
	}
	defer stmt.Close()

	exec := func(kind, dataID, name string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, datasourceID, kind, dataID, name, payload)
		return err
	}

	for _, signal := range batch.Signals {
		if err = exec(KindSignal, signal.DataID, signal.Name, signal); err != nil {
			break
		}
	}
	for _, condition := range batch.Conditions {
		if err != nil {
			break
		}
		err = exec(KindCondition, condition.DataID, condition.Name, condition)
	}
	for _, asset := range batch.Assets {
		if err != nil {
			break
		}
		err = exec(KindAsset, asset.DataID, asset.Name, asset)
	}
	if err != nil {
		txn.Rollback()
		logger.Error("Failed to write catalog batch", slog.String("datasource", datasourceID), slog.Any("error", err))
		return err
	}

	return txn.Commit()
}

func query[T any](ctx context.Context, db *sql.DB, datasourceID, kind string) ([]T, error) {
	rows, err := db.QueryContext(ctx, selectItems, datasourceID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		item, err := decodeItem[T](payload)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Signals(ctx context.Context, datasourceID string) ([]link.SignalDefinition, error) {
	return query[link.SignalDefinition](ctx, s.db, datasourceID, KindSignal)
}

func (s *PostgresStore) Conditions(ctx context.Context, datasourceID string) ([]link.ConditionDefinition, error) {
	return query[link.ConditionDefinition](ctx, s.db, datasourceID, KindCondition)
}

func (s *PostgresStore) Assets(ctx context.Context, datasourceID string) ([]link.AssetDefinition, error) {
	return query[link.AssetDefinition](ctx, s.db, datasourceID, KindAsset)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
