package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/normalization"
	"solana-pnl-lab/internal/storage"
)

// Stats counts what one Ingest call did.
type Stats struct {
	Received   int `json:"received"`
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
}

// Manager validates trades and writes them to a store.
// Re-ingesting the same signatures is a no-op.
type Manager struct {
	store  storage.TradeRecordStore
	strict bool
	logger *zap.Logger
}

// NewManager creates a manager. strict enables base58 checks.
func NewManager(store storage.TradeRecordStore, strict bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, strict: strict, logger: logger}
}

// Ingest stores trades for wallet. Trades without a wallet are assigned to it;
// trades for another wallet are rejected. Validation runs over the whole batch
// before anything is written, so an ErrInvalidTrade leaves the store untouched.
func (m *Manager) Ingest(ctx context.Context, wallet string, trades []domain.TradeRecord) (Stats, error) {
	stats := Stats{Received: len(trades)}

	batch := make([]domain.TradeRecord, len(trades))
	for i, t := range trades {
		if t.Wallet == "" {
			t.Wallet = wallet
		}
		if t.Wallet != wallet {
			return stats, fmt.Errorf("%w: %s: belongs to wallet %s", ErrInvalidTrade, t.Signature, t.Wallet)
		}
		if err := ValidateTrade(t, m.strict); err != nil {
			return stats, err
		}
		batch[i] = t
	}

	ordered, normStats := normalization.Normalize(batch)
	stats.Duplicates = normStats.DuplicatesDropped

	for i := range ordered {
		err := m.store.Insert(ctx, &ordered[i])
		switch {
		case err == nil:
			stats.Stored++
		case errors.Is(err, storage.ErrDuplicateKey):
			stats.Duplicates++
		default:
			return stats, fmt.Errorf("store trade %s: %w", ordered[i].Signature, err)
		}
	}

	m.logger.Info("trades ingested",
		zap.String("wallet", wallet),
		zap.Int("received", stats.Received),
		zap.Int("stored", stats.Stored),
		zap.Int("duplicates", stats.Duplicates),
	)
	return stats, nil
}
