package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu       sync.RWMutex
	data     map[string]*domain.TradeRecord // keyed by signature
	byWallet map[string][]string            // wallet -> signatures in insertion order
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data:     make(map[string]*domain.TradeRecord),
		byWallet: make(map[string][]string),
	}
}

func validTrade(t *domain.TradeRecord) bool {
	return t != nil && t.Signature != "" && t.Wallet != ""
}

// Insert adds a new trade. Returns ErrDuplicateKey if signature exists.
func (s *TradeRecordStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if !validTrade(t) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Signature]; exists {
		return storage.ErrDuplicateKey
	}
	s.put(t)
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if !validTrade(t) {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.Signature]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.Signature]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.Signature] = struct{}{}
	}

	for _, t := range trades {
		s.put(t)
	}
	return nil
}

// put stores a copy. Caller holds the write lock.
func (s *TradeRecordStore) put(t *domain.TradeRecord) {
	copy := *t
	s.data[t.Signature] = &copy
	s.byWallet[t.Wallet] = append(s.byWallet[t.Wallet], t.Signature)
}

// GetBySignature retrieves a trade by signature. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetBySignature(_ context.Context, signature string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// GetByWallet retrieves all trades of a wallet, ordered by timestamp ASC then insertion order.
func (s *TradeRecordStore) GetByWallet(_ context.Context, wallet string) ([]*domain.TradeRecord, error) {
	return s.collect(wallet, func(*domain.TradeRecord) bool { return true }), nil
}

// GetByWalletTimeRange retrieves a wallet's trades within [start, end] (inclusive).
func (s *TradeRecordStore) GetByWalletTimeRange(_ context.Context, wallet string, start, end int64) ([]*domain.TradeRecord, error) {
	return s.collect(wallet, func(t *domain.TradeRecord) bool {
		return t.Timestamp >= start && t.Timestamp <= end
	}), nil
}

func (s *TradeRecordStore) collect(wallet string, keep func(*domain.TradeRecord) bool) []*domain.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, sig := range s.byWallet[wallet] {
		t := s.data[sig]
		if keep(t) {
			copy := *t
			result = append(result, &copy)
		}
	}

	// byWallet is in insertion order; a stable sort keeps it for equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
