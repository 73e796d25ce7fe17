package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/storage"
	"solana-pnl-lab/internal/storage/postgres"
)

func testTrade(sig, wallet string, kind domain.TradeKind, ts int64) *domain.TradeRecord {
	t := &domain.TradeRecord{
		Signature: sig,
		Wallet:    wallet,
		Kind:      kind,
		Timestamp: ts,
	}
	switch kind {
	case domain.TradeKindBuy:
		t.InputAsset, t.InputAmount = domain.AssetUSDC, 100
		t.OutputAsset, t.OutputAmount = "MintX", 10
		t.InputValueUSD = domain.USD(100)
	default:
		t.InputAsset, t.InputAmount = "MintX", 10
		t.OutputAsset, t.OutputAmount = domain.AssetUSDC, 130
		t.OutputValueUSD = domain.USD(130)
	}
	return t
}

func TestTradeRecordStore_InsertAndGetBySignature(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	buy := testTrade("sig-1", "wallet-a", domain.TradeKindBuy, 1000)
	require.NoError(t, store.Insert(ctx, buy))

	got, err := store.GetBySignature(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, buy, got)
	assert.False(t, got.OutputValueUSD.IsSet(), "NULL valuation must stay unset")

	err = store.Insert(ctx, buy)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_InsertBulkAtomic(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	require.NoError(t, store.Insert(ctx, testTrade("sig-1", "wallet-a", domain.TradeKindBuy, 1000)))

	err := store.InsertBulk(ctx, []*domain.TradeRecord{
		testTrade("sig-2", "wallet-a", domain.TradeKindBuy, 2000),
		testTrade("sig-1", "wallet-a", domain.TradeKindSell, 3000),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetBySignature(ctx, "sig-2")
	assert.ErrorIs(t, err, storage.ErrNotFound, "batch must roll back")
}

func TestTradeRecordStore_GetByWalletOrdering(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRecord{
		testTrade("sig-c", "wallet-a", domain.TradeKindSell, 2000),
		testTrade("sig-b", "wallet-a", domain.TradeKindBuy, 1000),
		testTrade("sig-a", "wallet-a", domain.TradeKindBuy, 2000),
		testTrade("sig-z", "wallet-b", domain.TradeKindBuy, 500),
	}))

	trades, err := store.GetByWallet(ctx, "wallet-a")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "sig-b", trades[0].Signature)
	// sig-c and sig-a share a timestamp and come back in insertion order.
	assert.Equal(t, "sig-c", trades[1].Signature)
	assert.Equal(t, "sig-a", trades[2].Signature)
	assert.Equal(t, domain.TradeKindSell, trades[1].Kind)

	ranged, err := store.GetByWalletTimeRange(ctx, "wallet-a", 1500, 2000)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestTradeRecordStore_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	require.NoError(t, store.Insert(ctx, testTrade("zz-buy", "wallet-a", domain.TradeKindBuy, 1000)))
	require.NoError(t, store.Insert(ctx, testTrade("aa-sell", "wallet-a", domain.TradeKindSell, 1000)))

	trades, err := store.GetByWallet(ctx, "wallet-a")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "zz-buy", trades[0].Signature)
	assert.Equal(t, "aa-sell", trades[1].Signature)
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := postgres.NewTradeRecordStore(nil)
	err := store.Insert(context.Background(), &domain.TradeRecord{Signature: "sig"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
