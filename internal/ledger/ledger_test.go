package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pnl-lab/internal/domain"
)

func buy(sig string, ts int64, asset string, amount, costUSD float64) domain.TradeRecord {
	return domain.TradeRecord{
		Signature:      sig,
		Kind:           domain.TradeKindBuy,
		Timestamp:      ts,
		InputAsset:     domain.MintWSOL,
		InputAmount:    1,
		InputValueUSD:  domain.USD(costUSD),
		OutputAsset:    asset,
		OutputAmount:   amount,
		OutputValueUSD: domain.USD(costUSD),
	}
}

func sell(sig string, ts int64, asset string, amount, revenueUSD float64) domain.TradeRecord {
	return domain.TradeRecord{
		Signature:      sig,
		Kind:           domain.TradeKindSell,
		Timestamp:      ts,
		InputAsset:     asset,
		InputAmount:    amount,
		InputValueUSD:  domain.USD(revenueUSD),
		OutputAsset:    domain.MintWSOL,
		OutputAmount:   1,
		OutputValueUSD: domain.USD(revenueUSD),
	}
}

func TestConsumeSell_FIFOOrder(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 10, 100)))
	require.True(t, l.RecordBuy(buy("b2", 2, "X", 10, 300)))

	m, ok := l.ConsumeSell(sell("s1", 3, "X", 15, 450))
	require.True(t, ok)

	// 10 × $10 from b1 + 5 × $30 from b2
	assert.InDelta(t, 250.0, m.CostBasisUSD, 1e-9)
	assert.InDelta(t, 450.0, m.RevenueUSD, 1e-9)
	assert.InDelta(t, 200.0, m.PnLUSD, 1e-9)
	assert.Equal(t, 15.0, m.Matched)
	assert.Equal(t, 2, m.LotsMatched)
	assert.Equal(t, int64(1), m.OpenedAt)
	assert.False(t, m.Partial())
	assert.InDelta(t, 5.0, m.RemainingAfter, 1e-9)

	lots := l.Lots("X")
	require.Len(t, lots, 1, "exhausted b1 must be removed")
	assert.Equal(t, "b2", lots[0].Origin.Signature)
	assert.InDelta(t, 5.0, lots[0].RemainingAmount, 1e-9)
	assert.InDelta(t, 150.0, lots[0].RemainingCostUSD, 1e-9)
}

func TestConsumeSell_PartialLotPreservesUnitPrice(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 10, 100)))

	m, ok := l.ConsumeSell(sell("s1", 2, "X", 4, 60))
	require.True(t, ok)
	assert.InDelta(t, 40.0, m.CostBasisUSD, 1e-9)

	lots := l.Lots("X")
	require.Len(t, lots, 1)
	assert.InDelta(t, 6.0, lots[0].RemainingAmount, 1e-9)
	assert.InDelta(t, 60.0, lots[0].RemainingCostUSD, 1e-9)
	assert.InDelta(t, 10.0, lots[0].RemainingCostUSD/lots[0].RemainingAmount, 1e-9)
	assert.Equal(t, 10.0, lots[0].UnitPriceUSD)
}

func TestConsumeSell_RepeatedSplitsDoNotDrift(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 1000, 333)))

	for i := 0; i < 999; i++ {
		_, ok := l.ConsumeSell(sell("s", int64(i+2), "X", 1, 1))
		require.True(t, ok)
	}

	lots := l.Lots("X")
	require.Len(t, lots, 1)
	assert.InDelta(t, 1.0, lots[0].RemainingAmount, 1e-9)
	assert.InDelta(t, 0.333, lots[0].RemainingCostUSD, 1e-9)

	_, ok := l.ConsumeSell(sell("last", 2000, "X", 1, 1))
	require.True(t, ok)
	assert.Empty(t, l.Lots("X"))
	assert.Equal(t, 0.0, l.Remaining("X"))
}

func TestConsumeSell_NoHistoryIsSkipped(t *testing.T) {
	l := New(nil)

	_, ok := l.ConsumeSell(sell("s1", 1, "X", 10, 100))
	assert.False(t, ok)
	assert.Empty(t, l.Assets())
}

func TestConsumeSell_InsufficientLotsMatchesBestEffort(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 10, 100)))

	m, ok := l.ConsumeSell(sell("s1", 2, "X", 40, 400))
	require.True(t, ok)

	assert.True(t, m.Partial())
	assert.Equal(t, 10.0, m.Matched)
	// Only a quarter of the sell was matched, so only a quarter of its revenue counts.
	assert.InDelta(t, 100.0, m.RevenueUSD, 1e-9)
	assert.InDelta(t, 100.0, m.CostBasisUSD, 1e-9)
	assert.InDelta(t, 0.0, m.PnLUSD, 1e-9)

	_, ok = l.ConsumeSell(sell("s2", 3, "X", 5, 50))
	assert.False(t, ok, "queue is exhausted")
}

func TestConsumeSell_AssetIsolation(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("bx", 1, "X", 10, 100)))
	require.True(t, l.RecordBuy(buy("by", 2, "Y", 10, 1000)))

	_, ok := l.ConsumeSell(sell("sz", 3, "Z", 5, 50))
	assert.False(t, ok)

	m, ok := l.ConsumeSell(sell("sy", 4, "Y", 10, 900))
	require.True(t, ok)
	assert.InDelta(t, 1000.0, m.CostBasisUSD, 1e-9)

	assert.Equal(t, 10.0, l.Remaining("X"))
	assert.Equal(t, 0.0, l.Remaining("Y"))
	assert.Equal(t, []string{"X", "Y"}, l.Assets())
}

func TestRecordBuy_IgnoresIrrelevantTrades(t *testing.T) {
	l := New(nil)

	baseForBase := buy("b1", 1, domain.MintUSDC, 100, 100)
	assert.False(t, l.RecordBuy(baseForBase))

	tokenForToken := buy("b2", 2, "X", 10, 10)
	tokenForToken.InputAsset = "Y"
	assert.False(t, l.RecordBuy(tokenForToken))

	swap := buy("b3", 3, "X", 10, 10)
	swap.Kind = domain.TradeKindSwap
	assert.False(t, l.RecordBuy(swap))

	negative := buy("b4", 4, "X", -1, 10)
	assert.False(t, l.RecordBuy(negative))

	assert.Empty(t, l.Assets())
}

func TestRecordBuy_MissingValuationCostsZero(t *testing.T) {
	l := New(nil)
	b := buy("b1", 1, "X", 10, 0)
	b.InputValueUSD = domain.NoUSD()
	require.True(t, l.RecordBuy(b))

	m, ok := l.ConsumeSell(sell("s1", 2, "X", 10, 50))
	require.True(t, ok)
	assert.Equal(t, 0.0, m.CostBasisUSD)
	assert.True(t, m.BuyValuationMissing)
	assert.False(t, m.SellValuationMissing)
	assert.Equal(t, 50.0, m.PnLUSD)
}

func TestRecordBuy_ZeroAmountHasZeroUnitPrice(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b0", 1, "X", 0, 25)))

	lots := l.Lots("X")
	require.Len(t, lots, 1)
	assert.Equal(t, 0.0, lots[0].UnitPriceUSD)

	_, ok := l.ConsumeSell(sell("s1", 2, "X", 1, 1))
	assert.False(t, ok, "zero-amount lots cannot satisfy a sell")
}

func TestConsumeSell_ZeroAmountSell(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 10, 100)))

	_, ok := l.ConsumeSell(sell("s1", 2, "X", 0, 10))
	assert.False(t, ok)
	assert.Equal(t, 10.0, l.Remaining("X"))
}

func TestConsumeSell_SellForNonBaseIgnored(t *testing.T) {
	l := New(nil)
	require.True(t, l.RecordBuy(buy("b1", 1, "X", 10, 100)))

	s := sell("s1", 2, "X", 5, 50)
	s.OutputAsset = "Y"
	_, ok := l.ConsumeSell(s)
	assert.False(t, ok)
	assert.Equal(t, 10.0, l.Remaining("X"))
}

func TestQueue_CompactsAfterManyExhaustedLots(t *testing.T) {
	l := New(nil)
	for i := 0; i < 100; i++ {
		require.True(t, l.RecordBuy(buy("b", int64(i), "X", 1, 1)))
	}
	for i := 0; i < 80; i++ {
		_, ok := l.ConsumeSell(sell("s", int64(100+i), "X", 1, 2))
		require.True(t, ok)
	}

	q := l.queues["X"]
	assert.Len(t, q.live(), 20)
	assert.Less(t, q.head, compactThreshold+1)
	assert.InDelta(t, 20.0, l.Remaining("X"), 1e-9)
}

func TestPositionAsset(t *testing.T) {
	base := domain.DefaultBaseAssets()

	asset, ok := PositionAsset(buy("b", 1, "X", 1, 1), base)
	assert.True(t, ok)
	assert.Equal(t, "X", asset)

	asset, ok = PositionAsset(sell("s", 1, "X", 1, 1), base)
	assert.True(t, ok)
	assert.Equal(t, "X", asset)

	_, ok = PositionAsset(domain.TradeRecord{Kind: domain.TradeKindSwap, InputAsset: domain.AssetSOL, OutputAsset: "X"}, base)
	assert.False(t, ok)

	_, ok = PositionAsset(domain.TradeRecord{Kind: 0, InputAsset: domain.AssetSOL, OutputAsset: "X"}, base)
	assert.False(t, ok)
}
