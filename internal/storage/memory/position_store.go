package memory

import (
	"context"
	"sync"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TokenPosition // keyed by snapshot_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string][]domain.TokenPosition),
	}
}

// InsertBulk stores a snapshot's positions. Returns ErrDuplicateKey if the
// snapshot already has positions.
func (s *PositionStore) InsertBulk(_ context.Context, snapshotID string, positions []domain.TokenPosition) error {
	if snapshotID == "" {
		return storage.ErrInvalidInput
	}
	if len(positions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[snapshotID] = append([]domain.TokenPosition(nil), positions...)
	return nil
}

// GetBySnapshot retrieves a snapshot's positions in insertion order.
func (s *PositionStore) GetBySnapshot(_ context.Context, snapshotID string) ([]domain.TokenPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.TokenPosition(nil), s.data[snapshotID]...), nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
