package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/idhash"
	"solana-pnl-lab/internal/ledger"
)

func buyTrade(sig string, ts int64, asset string, amount float64, cost domain.OptionalUSD) domain.TradeRecord {
	return domain.TradeRecord{
		Signature:     sig,
		Kind:          domain.TradeKindBuy,
		Timestamp:     ts,
		InputAsset:    domain.AssetSOL,
		InputAmount:   1,
		InputValueUSD: cost,
		OutputAsset:   asset,
		OutputAmount:  amount,
	}
}

func sellTrade(sig string, ts int64, asset string, amount float64, revenue domain.OptionalUSD) domain.TradeRecord {
	return domain.TradeRecord{
		Signature:      sig,
		Kind:           domain.TradeKindSell,
		Timestamp:      ts,
		InputAsset:     asset,
		InputAmount:    amount,
		OutputAsset:    domain.AssetSOL,
		OutputAmount:   1,
		OutputValueUSD: revenue,
	}
}

func TestClosed_FromMatch(t *testing.T) {
	l := ledger.New(nil)
	require.True(t, l.RecordBuy(buyTrade("b1", 100, "X", 100, domain.USD(50))))

	m, ok := l.ConsumeSell(sellTrade("s1", 200, "X", 100, domain.USD(80)))
	require.True(t, ok)

	p := Closed(m)
	assert.Equal(t, "s1", p.PositionID)
	assert.Equal(t, "X", p.Asset)
	assert.False(t, p.IsOpen)
	assert.Equal(t, 100.0, p.TotalBought)
	assert.Equal(t, 100.0, p.TotalSold)
	assert.Equal(t, 0.0, p.RemainingTokens)
	assert.InDelta(t, 50.0, p.TotalCostUSD, 1e-9)
	assert.InDelta(t, 80.0, p.TotalRevenueUSD, 1e-9)
	assert.InDelta(t, 30.0, p.RealizedPnLUSD, 1e-9)
	assert.InDelta(t, 0.5, p.AverageBuyPriceUSD, 1e-9)
	assert.InDelta(t, 0.8, p.AverageSellPriceUSD, 1e-9)
	assert.Equal(t, int64(100), p.OpenedAt)
	assert.Equal(t, int64(200), p.ClosedAt)
	assert.False(t, p.IsIncomplete)
	assert.Empty(t, p.IncompleteReason)
}

func TestClosed_IncompleteReasons(t *testing.T) {
	tests := []struct {
		name    string
		buyUSD  domain.OptionalUSD
		sellUSD domain.OptionalUSD
		reason  string
	}{
		{"sell missing", domain.USD(50), domain.NoUSD(), domain.ReasonMissingSellValuation},
		{"buy missing", domain.NoUSD(), domain.USD(80), domain.ReasonMissingBuyValuation},
		{"both missing", domain.NoUSD(), domain.NoUSD(),
			domain.ReasonMissingBuyValuation + "; " + domain.ReasonMissingSellValuation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledger.New(nil)
			require.True(t, l.RecordBuy(buyTrade("b1", 1, "X", 10, tt.buyUSD)))
			m, ok := l.ConsumeSell(sellTrade("s1", 2, "X", 10, tt.sellUSD))
			require.True(t, ok)

			p := Closed(m)
			assert.True(t, p.IsIncomplete)
			assert.Equal(t, tt.reason, p.IncompleteReason)
		})
	}
}

func TestOpenAll_AggregatesRemainingLots(t *testing.T) {
	l := ledger.New(nil)
	require.True(t, l.RecordBuy(buyTrade("b1", 1, "X", 10, domain.USD(100))))
	require.True(t, l.RecordBuy(buyTrade("b2", 2, "Y", 5, domain.USD(5))))
	require.True(t, l.RecordBuy(buyTrade("b3", 3, "X", 10, domain.USD(300))))
	_, ok := l.ConsumeSell(sellTrade("s1", 4, "X", 15, domain.USD(450)))
	require.True(t, ok)

	open := OpenAll(l)
	require.Len(t, open, 2)

	x := open[0]
	assert.Equal(t, "X", x.Asset)
	assert.True(t, x.IsOpen)
	assert.Equal(t, idhash.ComputeOpenPositionID("X"), x.PositionID)
	assert.InDelta(t, 5.0, x.TotalBought, 1e-9)
	assert.InDelta(t, 5.0, x.RemainingTokens, 1e-9)
	assert.InDelta(t, 150.0, x.TotalCostUSD, 1e-9)
	assert.InDelta(t, 30.0, x.AverageBuyPriceUSD, 1e-9)
	assert.Equal(t, 0.0, x.RealizedPnLUSD)
	assert.Equal(t, int64(3), x.OpenedAt)
	assert.Zero(t, x.ClosedAt)

	y := open[1]
	assert.Equal(t, "Y", y.Asset)
	assert.InDelta(t, 1.0, y.AverageBuyPriceUSD, 1e-9)
}

func TestOpenAll_SkipsFullyClosedAssets(t *testing.T) {
	l := ledger.New(nil)
	require.True(t, l.RecordBuy(buyTrade("b1", 1, "X", 10, domain.USD(100))))
	_, ok := l.ConsumeSell(sellTrade("s1", 2, "X", 10, domain.USD(120)))
	require.True(t, ok)

	assert.Empty(t, OpenAll(l))
}

func TestOpen_IncompleteWhenAnyLotUnvalued(t *testing.T) {
	l := ledger.New(nil)
	require.True(t, l.RecordBuy(buyTrade("b1", 1, "X", 10, domain.USD(100))))
	require.True(t, l.RecordBuy(buyTrade("b2", 2, "X", 10, domain.NoUSD())))

	p, ok := Open("X", l.Lots("X"))
	require.True(t, ok)
	assert.True(t, p.IsIncomplete)
	assert.Equal(t, domain.ReasonMissingBuyValuation, p.IncompleteReason)
	assert.InDelta(t, 100.0, p.TotalCostUSD, 1e-9)
	assert.Equal(t, 2, p.LotsMatched)
}

func TestOpen_NothingRemaining(t *testing.T) {
	_, ok := Open("X", nil)
	assert.False(t, ok)
}
