package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const insertTradeQuery = `
	INSERT INTO trade_records (
		signature, wallet, kind, timestamp_ms,
		input_asset, input_amount, output_asset, output_amount,
		input_value_usd, output_value_usd
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const selectTradeColumns = `
	SELECT
		signature, wallet, kind, timestamp_ms,
		input_asset, input_amount, output_asset, output_amount,
		input_value_usd, output_value_usd
	FROM trade_records
`

func tradeArgs(t *domain.TradeRecord) []any {
	return []any{
		t.Signature, t.Wallet, t.Kind.String(), t.Timestamp,
		t.InputAsset, t.InputAmount, t.OutputAsset, t.OutputAmount,
		t.InputValueUSD.Ptr(), t.OutputValueUSD.Ptr(),
	}
}

func validTrade(t *domain.TradeRecord) bool {
	return t != nil && t.Signature != "" && t.Wallet != "" && t.Kind.Valid()
}

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if !validTrade(t) {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	return mapError(err, "insert trade record")
}

// InsertBulk adds multiple trades in one transaction. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if !validTrade(t) {
			return storage.ErrInvalidInput
		}
	}

	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range trades {
			batch.Queue(insertTradeQuery, tradeArgs(t)...)
		}

		results := tx.SendBatch(ctx, batch)
		for range trades {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return mapError(err, "insert trade record in bulk")
			}
		}
		return mapError(results.Close(), "close batch")
	})
}

// GetBySignature retrieves a trade by signature. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetBySignature(ctx context.Context, signature string) (*domain.TradeRecord, error) {
	row := s.pool.QueryRow(ctx, selectTradeColumns+` WHERE signature = $1`, signature)
	t, err := scanTradeRecord(row)
	if err != nil {
		return nil, mapError(err, "get trade record by signature")
	}
	return t, nil
}

// GetByWallet retrieves all trades of a wallet, ordered by timestamp ASC, seq ASC.
// seq is assigned on insert, so trades sharing a timestamp keep insertion order.
func (s *TradeRecordStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.TradeRecord, error) {
	query := selectTradeColumns + `
		WHERE wallet = $1
		ORDER BY timestamp_ms ASC, seq ASC
	`
	return s.queryTrades(ctx, query, wallet)
}

// GetByWalletTimeRange retrieves a wallet's trades within [start, end] (inclusive).
func (s *TradeRecordStore) GetByWalletTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.TradeRecord, error) {
	query := selectTradeColumns + `
		WHERE wallet = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, seq ASC
	`
	return s.queryTrades(ctx, query, wallet, start, end)
}

func (s *TradeRecordStore) queryTrades(ctx context.Context, query string, args ...any) ([]*domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade records: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return result, nil
}

func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		t        domain.TradeRecord
		kind     string
		inValue  *float64
		outValue *float64
	)
	err := row.Scan(
		&t.Signature, &t.Wallet, &kind, &t.Timestamp,
		&t.InputAsset, &t.InputAmount, &t.OutputAsset, &t.OutputAmount,
		&inValue, &outValue,
	)
	if err != nil {
		return nil, err
	}

	t.Kind, err = domain.ParseTradeKind(kind)
	if err != nil {
		return nil, err
	}
	t.InputValueUSD = domain.USDFromPtr(inValue)
	t.OutputValueUSD = domain.USDFromPtr(outValue)
	return &t, nil
}
