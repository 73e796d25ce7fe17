// Package app wires configuration into stores shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"solana-pnl-lab/internal/config"
	"solana-pnl-lab/internal/storage"
	chstore "solana-pnl-lab/internal/storage/clickhouse"
	"solana-pnl-lab/internal/storage/memory"
	"solana-pnl-lab/internal/storage/migrations"
	pgstore "solana-pnl-lab/internal/storage/postgres"
	"solana-pnl-lab/internal/storage/sqlite"
)

// Stores groups the persistence backends selected by config.
// Snapshots is ClickHouse when a DSN is configured and in-memory otherwise.
// Positions live in PostgreSQL for the postgres backend and in memory otherwise.
type Stores struct {
	Trades    storage.TradeRecordStore
	Snapshots storage.PnLSnapshotStore
	Positions storage.PositionStore
	Backend   string
}

// OpenStores connects to the configured backends, applies migrations and
// returns a cleanup func that closes every connection it opened.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := storage.DefaultRetryPolicy()
	policy.MaxTries = uint(cfg.ConnectRetries)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &Stores{
		Snapshots: memory.NewPnLSnapshotStore(),
		Positions: memory.NewPositionStore(),
		Backend:   cfg.Storage,
	}

	switch cfg.Storage {
	case config.StorageMemory:
		stores.Trades = memory.NewTradeRecordStore()

	case config.StoragePostgres:
		pool, err := storage.Connect(ctx, logger, "postgres", policy, func(ctx context.Context) (*pgstore.Pool, error) {
			return pgstore.NewPool(ctx, cfg.PostgresDSN)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.Trades = pgstore.NewTradeRecordStore(pool)
		stores.Positions = pgstore.NewPositionStore(pool)

	case config.StorageSQLite:
		db, err := storage.Connect(ctx, logger, "sqlite", policy, func(ctx context.Context) (*sql.DB, error) {
			return sqlite.Open(ctx, cfg.SQLitePath)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := migrations.RunSQLiteMigrations(db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		stores.Trades = sqlite.NewTradeRecordStore(db)

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage %q", config.ErrInvalidConfig, cfg.Storage)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := storage.Connect(ctx, logger, "clickhouse", policy, func(ctx context.Context) (*chstore.Conn, error) {
			return migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.Snapshots = chstore.NewPnLSnapshotStore(conn)
	}

	logger.Info("storage ready",
		zap.String("backend", cfg.Storage),
		zap.Bool("clickhouse_snapshots", cfg.ClickhouseDSN != ""),
	)
	return stores, cleanup, nil
}
