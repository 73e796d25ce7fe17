package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
// Rows are keyed by (snapshot_id, ordinal) so reads return build order.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

var _ storage.PositionStore = (*PositionStore)(nil)

var positionColumns = []string{
	"snapshot_id", "ordinal", "position_id", "asset", "is_open",
	"total_bought", "total_sold", "remaining_tokens",
	"total_cost_usd", "total_revenue_usd", "realized_pnl_usd",
	"average_buy_price_usd", "average_sell_price_usd",
	"is_incomplete", "incomplete_reason",
	"opened_at", "closed_at", "lots_matched",
}

// InsertBulk copies all positions of a snapshot in one transaction.
func (s *PositionStore) InsertBulk(ctx context.Context, snapshotID string, positions []domain.TokenPosition) error {
	if snapshotID == "" {
		return storage.ErrInvalidInput
	}
	if len(positions) == 0 {
		return nil
	}

	rows := make([][]any, len(positions))
	for i, p := range positions {
		rows[i] = []any{
			snapshotID, i, p.PositionID, p.Asset, p.IsOpen,
			p.TotalBought, p.TotalSold, p.RemainingTokens,
			p.TotalCostUSD, p.TotalRevenueUSD, p.RealizedPnLUSD,
			p.AverageBuyPriceUSD, p.AverageSellPriceUSD,
			p.IsIncomplete, p.IncompleteReason,
			p.OpenedAt, p.ClosedAt, p.LotsMatched,
		}
	}

	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"positions"}, positionColumns, pgx.CopyFromRows(rows))
		return mapError(err, "copy positions")
	})
}

// GetBySnapshot retrieves a snapshot's positions ordered by ordinal.
func (s *PositionStore) GetBySnapshot(ctx context.Context, snapshotID string) ([]domain.TokenPosition, error) {
	query := `
		SELECT
			position_id, asset, is_open,
			total_bought, total_sold, remaining_tokens,
			total_cost_usd, total_revenue_usd, realized_pnl_usd,
			average_buy_price_usd, average_sell_price_usd,
			is_incomplete, incomplete_reason,
			opened_at, closed_at, lots_matched
		FROM positions
		WHERE snapshot_id = $1
		ORDER BY ordinal ASC
	`

	rows, err := s.pool.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var result []domain.TokenPosition
	for rows.Next() {
		var p domain.TokenPosition
		err := rows.Scan(
			&p.PositionID, &p.Asset, &p.IsOpen,
			&p.TotalBought, &p.TotalSold, &p.RemainingTokens,
			&p.TotalCostUSD, &p.TotalRevenueUSD, &p.RealizedPnLUSD,
			&p.AverageBuyPriceUSD, &p.AverageSellPriceUSD,
			&p.IsIncomplete, &p.IncompleteReason,
			&p.OpenedAt, &p.ClosedAt, &p.LotsMatched,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return result, nil
}
