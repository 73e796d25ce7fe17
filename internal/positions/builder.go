// Package positions turns ledger activity into TokenPosition reports.
package positions

import (
	"strings"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/idhash"
	"solana-pnl-lab/internal/ledger"
)

// Closed builds the immutable position for one matched sell.
// PositionID is the sell signature.
func Closed(m ledger.SellMatch) domain.TokenPosition {
	p := domain.TokenPosition{
		PositionID:          m.Sell.Signature,
		Asset:               m.Asset,
		IsOpen:              false,
		TotalBought:         m.Matched,
		TotalSold:           m.Matched,
		RemainingTokens:     m.RemainingAfter,
		TotalCostUSD:        m.CostBasisUSD,
		TotalRevenueUSD:     m.RevenueUSD,
		RealizedPnLUSD:      m.RevenueUSD - m.CostBasisUSD,
		AverageBuyPriceUSD:  safeDiv(m.CostBasisUSD, m.Matched),
		AverageSellPriceUSD: safeDiv(m.RevenueUSD, m.Matched),
		OpenedAt:            m.OpenedAt,
		ClosedAt:            m.Sell.Timestamp,
		LotsMatched:         m.LotsMatched,
	}
	p.IncompleteReason = incompleteReason(m.BuyValuationMissing, m.SellValuationMissing)
	p.IsIncomplete = p.IncompleteReason != ""
	return p
}

// Open aggregates the live lots of one asset into an open position.
// Returns false when nothing remains.
func Open(asset string, lots []ledger.BuyLot) (domain.TokenPosition, bool) {
	var (
		amount       float64
		cost         float64
		missingValue bool
		openedAt     int64
		n            int
	)
	for _, lot := range lots {
		if lot.RemainingAmount <= 0 {
			continue
		}
		if n == 0 {
			openedAt = lot.Origin.Timestamp
		}
		n++
		amount += lot.RemainingAmount
		cost += lot.RemainingCostUSD
		if !lot.Origin.InputValueUSD.IsSet() {
			missingValue = true
		}
	}
	if amount <= 0 {
		return domain.TokenPosition{}, false
	}

	p := domain.TokenPosition{
		PositionID:         idhash.ComputeOpenPositionID(asset),
		Asset:              asset,
		IsOpen:             true,
		TotalBought:        amount,
		RemainingTokens:    amount,
		TotalCostUSD:       cost,
		AverageBuyPriceUSD: safeDiv(cost, amount),
		OpenedAt:           openedAt,
		LotsMatched:        n,
	}
	p.IncompleteReason = incompleteReason(missingValue, false)
	p.IsIncomplete = p.IncompleteReason != ""
	return p, true
}

// OpenAll materializes one open position per asset with remaining lots,
// in the ledger's first-buy order.
func OpenAll(l *ledger.Ledger) []domain.TokenPosition {
	var out []domain.TokenPosition
	for _, asset := range l.Assets() {
		if p, ok := Open(asset, l.Lots(asset)); ok {
			out = append(out, p)
		}
	}
	return out
}

func incompleteReason(buyMissing, sellMissing bool) string {
	var reasons []string
	if buyMissing {
		reasons = append(reasons, domain.ReasonMissingBuyValuation)
	}
	if sellMissing {
		reasons = append(reasons, domain.ReasonMissingSellValuation)
	}
	return strings.Join(reasons, "; ")
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
