package metrics

import (
	"time"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/ledger"
)

// Heuristic defaults.
const (
	DefaultHeuristicWindow    = 30 * 24 * time.Hour
	DefaultHeuristicThreshold = 0.01
)

// WinRateInput carries what either strategy may need.
// Trades must be normalized (deduplicated, chronological).
type WinRateInput struct {
	Trades []domain.TradeRecord
	Closed []domain.TokenPosition
}

// WinRateStrategy computes a win rate in [0, 100].
type WinRateStrategy interface {
	Mode() string
	WinRate(in WinRateInput) float64
}

// NewWinRateStrategy picks PositionWinRate when positions are built and
// WindowWinRate otherwise.
func NewWinRateStrategy(includePositions bool, window time.Duration, threshold float64, base domain.AssetSet) WinRateStrategy {
	if includePositions {
		return PositionWinRate{}
	}
	return WindowWinRate{Window: window, Threshold: threshold, Base: base}
}

// PositionWinRate is the precise win rate over closed positions.
// Incomplete positions are excluded from both sides of the ratio.
type PositionWinRate struct{}

// Mode implements WinRateStrategy.
func (PositionWinRate) Mode() string { return domain.WinRateModePrecise }

// WinRate implements WinRateStrategy.
func (PositionWinRate) WinRate(in WinRateInput) float64 {
	var wins, total int
	for _, p := range in.Closed {
		if p.IsOpen || p.IsIncomplete {
			continue
		}
		total++
		if p.RealizedPnLUSD > 0 {
			wins++
		}
	}
	return computeWinRate(wins, total)
}

// WindowWinRate approximates the win rate without a ledger: a sell wins when
// its unit price beats the mean unit price of same-asset buys inside the
// trailing Window by more than Threshold (0.01 = 1%).
//
// This is not equivalent to FIFO PnL. Buys outside the window are ignored
// entirely and lots are never consumed, so a sell of old inventory is judged
// against recent prices. Sells lacking a USD value, and sells with no valued
// buy inside the window, are not considered.
type WindowWinRate struct {
	Window    time.Duration
	Threshold float64
	Base      domain.AssetSet // nil means domain.DefaultBaseAssets
}

// Mode implements WinRateStrategy.
func (WindowWinRate) Mode() string { return domain.WinRateModeHeuristic }

// priceWindow holds valued buys of one asset in sequence order with running
// sums of their unit prices. start only moves forward since sells arrive in
// timestamp order.
type priceWindow struct {
	timestamps []int64
	prefix     []float64 // prefix[i] = sum of the first i unit prices
	start      int
}

func (w *priceWindow) add(ts int64, unitPrice float64) {
	if len(w.prefix) == 0 {
		w.prefix = append(w.prefix, 0)
	}
	w.timestamps = append(w.timestamps, ts)
	w.prefix = append(w.prefix, w.prefix[len(w.prefix)-1]+unitPrice)
}

// mean returns the mean unit price of buys at or after from.
func (w *priceWindow) mean(from int64) (float64, bool) {
	for w.start < len(w.timestamps) && w.timestamps[w.start] < from {
		w.start++
	}
	n := len(w.timestamps) - w.start
	if n == 0 {
		return 0, false
	}
	return (w.prefix[len(w.timestamps)] - w.prefix[w.start]) / float64(n), true
}

// WinRate implements WinRateStrategy.
func (s WindowWinRate) WinRate(in WinRateInput) float64 {
	base := s.Base
	if base == nil {
		base = domain.DefaultBaseAssets()
	}
	windowMs := s.Window.Milliseconds()

	windows := make(map[string]*priceWindow)
	var wins, considered int

	for _, t := range in.Trades {
		asset, ok := ledger.PositionAsset(t, base)
		if !ok {
			continue
		}

		switch t.Kind {
		case domain.TradeKindBuy:
			if !t.InputValueUSD.IsSet() || !(t.OutputAmount > 0) {
				continue
			}
			w, exists := windows[asset]
			if !exists {
				w = &priceWindow{}
				windows[asset] = w
			}
			w.add(t.Timestamp, t.InputValueUSD.OrZero()/t.OutputAmount)

		case domain.TradeKindSell:
			if !t.OutputValueUSD.IsSet() || !(t.InputAmount > 0) {
				continue
			}
			w, exists := windows[asset]
			if !exists {
				continue
			}
			avg, ok := w.mean(t.Timestamp - windowMs)
			if !ok {
				continue
			}
			considered++
			if t.OutputValueUSD.OrZero()/t.InputAmount > avg*(1+s.Threshold) {
				wins++
			}
		}
	}

	return computeWinRate(wins, considered)
}
