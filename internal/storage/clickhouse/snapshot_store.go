package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// PnLSnapshotStore implements storage.PnLSnapshotStore using ClickHouse.
// The table is a ReplacingMergeTree; append-only semantics are enforced by an
// existence check before insert and FINAL on reads.
type PnLSnapshotStore struct {
	conn *Conn
}

// NewPnLSnapshotStore creates a new PnLSnapshotStore.
func NewPnLSnapshotStore(conn *Conn) *PnLSnapshotStore {
	return &PnLSnapshotStore{conn: conn}
}

var _ storage.PnLSnapshotStore = (*PnLSnapshotStore)(nil)

const selectSnapshotColumns = `
	SELECT
		snapshot_id, wallet, computed_at, trade_count, last_signature,
		realized_pnl_usd, win_rate, win_rate_mode,
		best_trade_profit, best_trade_asset, best_trade_signature,
		closed_positions, open_positions, incomplete_positions, duplicates_dropped
	FROM pnl_snapshots FINAL
`

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *PnLSnapshotStore) Insert(ctx context.Context, snap *domain.PnLSnapshot) error {
	if snap == nil || snap.SnapshotID == "" || snap.Wallet == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, snap.SnapshotID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO pnl_snapshots (
			snapshot_id, wallet, computed_at, trade_count, last_signature,
			realized_pnl_usd, win_rate, win_rate_mode,
			best_trade_profit, best_trade_asset, best_trade_signature,
			closed_positions, open_positions, incomplete_positions, duplicates_dropped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		snap.SnapshotID, snap.Wallet, snap.ComputedAt, uint32(snap.TradeCount), snap.LastSignature,
		snap.RealizedPnLUSD, snap.WinRate, snap.WinRateMode,
		snap.BestTradeProfit, snap.BestTradeAsset, snap.BestTradeSignature,
		uint32(snap.ClosedPositions), uint32(snap.OpenPositions),
		uint32(snap.IncompletePositions), uint32(snap.DuplicatesDropped),
	)
	if err != nil {
		return fmt.Errorf("insert pnl snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
func (s *PnLSnapshotStore) GetByID(ctx context.Context, snapshotID string) (*domain.PnLSnapshot, error) {
	row := s.conn.QueryRow(ctx, selectSnapshotColumns+` WHERE snapshot_id = ? LIMIT 1`, snapshotID)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pnl snapshot: %w", err)
	}
	return snap, nil
}

// GetLatestByWallet retrieves the newest snapshot of a wallet.
func (s *PnLSnapshotStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.PnLSnapshot, error) {
	query := selectSnapshotColumns + `
		WHERE wallet = ?
		ORDER BY computed_at DESC, snapshot_id DESC
		LIMIT 1
	`
	snap, err := scanSnapshot(s.conn.QueryRow(ctx, query, wallet))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest pnl snapshot: %w", err)
	}
	return snap, nil
}

// GetByWallet retrieves all snapshots of a wallet, ordered by computed_at ASC, snapshot_id ASC.
func (s *PnLSnapshotStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.PnLSnapshot, error) {
	query := selectSnapshotColumns + `
		WHERE wallet = ?
		ORDER BY computed_at ASC, snapshot_id ASC
	`
	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.PnLSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return result, nil
}

func (s *PnLSnapshotStore) exists(ctx context.Context, snapshotID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM pnl_snapshots FINAL WHERE snapshot_id = ?`, snapshotID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSnapshot reads one row. UInt32 columns need uint32 destinations.
func scanSnapshot(row scanner) (*domain.PnLSnapshot, error) {
	var (
		snap                                        domain.PnLSnapshot
		tradeCount, closed, open, incomplete, dupes uint32
	)
	err := row.Scan(
		&snap.SnapshotID, &snap.Wallet, &snap.ComputedAt, &tradeCount, &snap.LastSignature,
		&snap.RealizedPnLUSD, &snap.WinRate, &snap.WinRateMode,
		&snap.BestTradeProfit, &snap.BestTradeAsset, &snap.BestTradeSignature,
		&closed, &open, &incomplete, &dupes,
	)
	if err != nil {
		return nil, err
	}
	snap.TradeCount = int(tradeCount)
	snap.ClosedPositions = int(closed)
	snap.OpenPositions = int(open)
	snap.IncompletePositions = int(incomplete)
	snap.DuplicatesDropped = int(dupes)
	return &snap, nil
}
