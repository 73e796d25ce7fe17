package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore on database/sql.
type TradeRecordStore struct {
	db *sql.DB
}

// NewTradeRecordStore creates a new TradeRecordStore. The schema must already
// be migrated.
func NewTradeRecordStore(db *sql.DB) *TradeRecordStore {
	return &TradeRecordStore{db: db}
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const insertTradeQuery = `INSERT INTO trade_records (
	signature, wallet, kind, timestamp_ms,
	input_asset, input_amount, output_asset, output_amount,
	input_value_usd, output_value_usd
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTradeColumns = `SELECT
	signature, wallet, kind, timestamp_ms,
	input_asset, input_amount, output_asset, output_amount,
	input_value_usd, output_value_usd
FROM trade_records`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTrade(ctx context.Context, ex execer, t *domain.TradeRecord) error {
	_, err := ex.ExecContext(ctx, insertTradeQuery,
		t.Signature, t.Wallet, t.Kind.String(), t.Timestamp,
		t.InputAsset, t.InputAmount, t.OutputAsset, t.OutputAmount,
		nullUSD(t.InputValueUSD), nullUSD(t.OutputValueUSD),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

func validTrade(t *domain.TradeRecord) bool {
	return t != nil && t.Signature != "" && t.Wallet != "" && t.Kind.Valid()
}

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if !validTrade(t) {
		return storage.ErrInvalidInput
	}
	return insertTrade(ctx, s.db, t)
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range trades {
		if err := insertTrade(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetBySignature retrieves a trade by signature. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetBySignature(ctx context.Context, signature string) (*domain.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, selectTradeColumns+` WHERE signature = ?`, signature)
	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by signature: %w", err)
	}
	return t, nil
}

// GetByWallet retrieves all trades of a wallet, ordered by timestamp ASC, seq ASC.
// seq is assigned on insert, so trades sharing a timestamp keep insertion order.
func (s *TradeRecordStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.TradeRecord, error) {
	return s.query(ctx, selectTradeColumns+`
		WHERE wallet = ?
		ORDER BY timestamp_ms ASC, seq ASC`, wallet)
}

// GetByWalletTimeRange retrieves a wallet's trades within [start, end] (inclusive).
func (s *TradeRecordStore) GetByWalletTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.TradeRecord, error) {
	return s.query(ctx, selectTradeColumns+`
		WHERE wallet = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, seq ASC`, wallet, start, end)
}

func (s *TradeRecordStore) query(ctx context.Context, query string, args ...any) ([]*domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade records: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*domain.TradeRecord, error) {
	var (
		t                 domain.TradeRecord
		kind              string
		inValue, outValue sql.NullFloat64
	)
	err := row.Scan(
		&t.Signature, &t.Wallet, &kind, &t.Timestamp,
		&t.InputAsset, &t.InputAmount, &t.OutputAsset, &t.OutputAmount,
		&inValue, &outValue,
	)
	if err != nil {
		return nil, err
	}

	if t.Kind, err = domain.ParseTradeKind(kind); err != nil {
		return nil, err
	}
	t.InputValueUSD = fromNull(inValue)
	t.OutputValueUSD = fromNull(outValue)
	return &t, nil
}

func nullUSD(v domain.OptionalUSD) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.OrZero(), Valid: v.IsSet()}
}

func fromNull(v sql.NullFloat64) domain.OptionalUSD {
	if !v.Valid {
		return domain.NoUSD()
	}
	return domain.USD(v.Float64)
}
