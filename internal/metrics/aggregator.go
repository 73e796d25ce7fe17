// Package metrics derives run-level figures from ledger matches: realized PnL,
// the best trade, PnL distribution stats and win rate.
package metrics

import (
	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/ledger"
)

// Aggregator accumulates matched sells.
// Matches must be observed in chronological sell order; summation order and
// best-trade tie breaking depend on it.
type Aggregator struct {
	trackBest bool

	realized float64
	best     domain.BestTrade
	haveBest bool
	outcomes []float64
}

// NewAggregator creates an empty aggregator.
func NewAggregator(trackBest bool) *Aggregator {
	return &Aggregator{trackBest: trackBest}
}

// Observe adds one matched sell.
func (a *Aggregator) Observe(m ledger.SellMatch) {
	a.realized += m.PnLUSD
	a.outcomes = append(a.outcomes, m.PnLUSD)

	if !a.trackBest {
		return
	}
	// Strictly greater: the first-seen sell keeps a tie.
	if !a.haveBest || m.PnLUSD > a.best.Profit {
		a.best = domain.BestTrade{
			Profit:    m.PnLUSD,
			Asset:     m.Asset,
			Signature: m.Sell.Signature,
		}
		a.haveBest = true
	}
}

// RealizedPnL returns the sum of observed trade PnL.
func (a *Aggregator) RealizedPnL() float64 {
	return a.realized
}

// BestTrade returns the most profitable observed sell, or a zero profit with
// domain.NoAsset when nothing matched or tracking is off.
func (a *Aggregator) BestTrade() domain.BestTrade {
	if !a.haveBest {
		return domain.BestTrade{Profit: 0, Asset: domain.NoAsset}
	}
	return a.best
}

// Matched returns the number of observed sells.
func (a *Aggregator) Matched() int {
	return len(a.outcomes)
}

// Stats computes the PnL distribution of observed sells.
func (a *Aggregator) Stats() domain.TradeStats {
	return computeStats(a.outcomes)
}
