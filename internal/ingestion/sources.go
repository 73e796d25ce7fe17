package ingestion

import (
	"context"
	"fmt"
	"math"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// Fetch bounds covering every trade.
const (
	AllTimeFrom int64 = 0
	AllTimeTo   int64 = math.MaxInt64
)

// TradeSource provides a wallet's trade history.
type TradeSource interface {
	// Fetch returns trades within [from, to] (inclusive, ms). Order is not
	// guaranteed; the calculator normalizes.
	Fetch(ctx context.Context, wallet string, from, to int64) ([]domain.TradeRecord, error)
}

// FileSource serves trades loaded from a file, filtered by wallet when the
// records carry one.
type FileSource struct {
	Path string
}

// Fetch implements TradeSource.
func (s FileSource) Fetch(_ context.Context, wallet string, from, to int64) ([]domain.TradeRecord, error) {
	trades, err := LoadFile(s.Path)
	if err != nil {
		return nil, err
	}

	out := trades[:0]
	for _, t := range trades {
		if wallet != "" && t.Wallet != "" && t.Wallet != wallet {
			continue
		}
		if t.Timestamp < from || t.Timestamp > to {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// StoreSource reads trades from a TradeRecordStore.
type StoreSource struct {
	Store storage.TradeRecordStore
}

// Fetch implements TradeSource. A full range reads the whole wallet.
func (s StoreSource) Fetch(ctx context.Context, wallet string, from, to int64) ([]domain.TradeRecord, error) {
	var (
		rows []*domain.TradeRecord
		err  error
	)
	if from <= AllTimeFrom && to == AllTimeTo {
		rows, err = s.Store.GetByWallet(ctx, wallet)
	} else {
		rows, err = s.Store.GetByWalletTimeRange(ctx, wallet, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", wallet, err)
	}

	trades := make([]domain.TradeRecord, len(rows))
	for i, r := range rows {
		trades[i] = *r
	}
	return trades, nil
}
