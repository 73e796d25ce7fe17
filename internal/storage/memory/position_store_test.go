package memory

import (
	"context"
	"errors"
	"testing"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
)

func TestPositionStore_InsertAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []domain.TokenPosition{
		{PositionID: "sell-1", Asset: "X", RealizedPnLUSD: 30},
		{PositionID: "open-x", Asset: "X", IsOpen: true, RemainingTokens: 5},
	}
	if err := store.InsertBulk(ctx, "snap1", positions); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	positions[0].RealizedPnLUSD = -1

	got, err := store.GetBySnapshot(ctx, "snap1")
	if err != nil {
		t.Fatalf("GetBySnapshot failed: %v", err)
	}
	if len(got) != 2 || got[0].PositionID != "sell-1" || got[1].PositionID != "open-x" {
		t.Fatalf("unexpected positions: %+v", got)
	}
	if got[0].RealizedPnLUSD != 30 {
		t.Errorf("store must copy input, got %f", got[0].RealizedPnLUSD)
	}

	if err := store.InsertBulk(ctx, "snap1", positions); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, "", positions); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	empty, err := store.GetBySnapshot(ctx, "unknown")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result, got %v, %v", empty, err)
	}
}
