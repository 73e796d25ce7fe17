// Package storage defines the persistence contracts shared by the memory,
// PostgreSQL, SQLite and ClickHouse backends.
package storage

import (
	"context"

	"solana-pnl-lab/internal/domain"
)

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists and
	// ErrInvalidInput if signature or wallet is empty.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetBySignature retrieves a trade by signature. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.TradeRecord, error)

	// GetByWallet retrieves all trades of a wallet, ordered by timestamp ASC and,
	// within one timestamp, by insertion order.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.TradeRecord, error)

	// GetByWalletTimeRange retrieves a wallet's trades within [start, end] (inclusive, ms).
	GetByWalletTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.TradeRecord, error)
}

// PnLSnapshotStore provides access to pnl_snapshots storage.
type PnLSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *domain.PnLSnapshot) error

	// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, snapshotID string) (*domain.PnLSnapshot, error)

	// GetLatestByWallet retrieves the most recently computed snapshot of a wallet.
	// Returns ErrNotFound if the wallet has none.
	GetLatestByWallet(ctx context.Context, wallet string) (*domain.PnLSnapshot, error)

	// GetByWallet retrieves all snapshots of a wallet, ordered by computed_at ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.PnLSnapshot, error)
}

// PositionStore provides access to positions storage.
type PositionStore interface {
	// InsertBulk stores the positions of one snapshot atomically.
	// Returns ErrDuplicateKey if positions for the snapshot already exist.
	InsertBulk(ctx context.Context, snapshotID string, positions []domain.TokenPosition) error

	// GetBySnapshot retrieves a snapshot's positions in their original order.
	GetBySnapshot(ctx context.Context, snapshotID string) ([]domain.TokenPosition, error)
}
