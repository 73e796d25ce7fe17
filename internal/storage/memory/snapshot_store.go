package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

// PnLSnapshotStore is an in-memory implementation of storage.PnLSnapshotStore.
type PnLSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PnLSnapshot // keyed by snapshot_id
}

// NewPnLSnapshotStore creates a new in-memory snapshot store.
func NewPnLSnapshotStore() *PnLSnapshotStore {
	return &PnLSnapshotStore{
		data: make(map[string]*domain.PnLSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *PnLSnapshotStore) Insert(_ context.Context, snap *domain.PnLSnapshot) error {
	if snap == nil || snap.SnapshotID == "" || snap.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *snap
	s.data[snap.SnapshotID] = &copy
	return nil
}

// GetByID retrieves a snapshot by ID. Returns ErrNotFound if not exists.
func (s *PnLSnapshotStore) GetByID(_ context.Context, snapshotID string) (*domain.PnLSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[snapshotID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *snap
	return &copy, nil
}

// GetLatestByWallet retrieves the newest snapshot of a wallet.
func (s *PnLSnapshotStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.PnLSnapshot, error) {
	all, _ := s.GetByWallet(ctx, wallet)
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[len(all)-1], nil
}

// GetByWallet retrieves all snapshots of a wallet, ordered by computed_at ASC, snapshot_id ASC.
func (s *PnLSnapshotStore) GetByWallet(_ context.Context, wallet string) ([]*domain.PnLSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PnLSnapshot
	for _, snap := range s.data {
		if snap.Wallet == wallet {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ComputedAt != result[j].ComputedAt {
			return result[i].ComputedAt < result[j].ComputedAt
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})
	return result, nil
}

var _ storage.PnLSnapshotStore = (*PnLSnapshotStore)(nil)
