// Package ledger implements FIFO cost-basis lot matching for one calculation run.
package ledger

import (
	"math"

	"solana-pnl-lab/internal/domain"
)

// BuyLot is the unconsumed part of one buy.
// RemainingCostUSD / RemainingAmount stays equal to UnitPriceUSD while the lot is
// live; an exhausted lot is exactly 0 / 0.
type BuyLot struct {
	RemainingAmount  float64
	RemainingCostUSD float64
	UnitPriceUSD     float64
	Origin           domain.TradeRecord
}

// SellMatch is the outcome of matching one sell against the lot queue.
type SellMatch struct {
	Sell  domain.TradeRecord
	Asset string

	Requested    float64 // sell input amount
	Matched      float64 // portion covered by lots
	CostBasisUSD float64
	RevenueUSD   float64 // sell value scaled to the matched portion
	PnLUSD       float64

	LotsMatched    int
	OpenedAt       int64   // timestamp of the oldest consumed lot
	RemainingAfter float64 // asset amount left in the queue after the sell

	BuyValuationMissing  bool // a consumed lot's origin had no input value
	SellValuationMissing bool
}

// Partial reports whether the lots covered less than the full sell.
func (m SellMatch) Partial() bool {
	return m.Matched < m.Requested
}

// queue holds the lots of one asset. Lots before head are exhausted.
type queue struct {
	lots []BuyLot
	head int
}

// compactThreshold bounds how many exhausted lots may precede head before the
// backing slice is shifted down.
const compactThreshold = 32

func (q *queue) live() []BuyLot {
	return q.lots[q.head:]
}

// dropExhausted advances head past exhausted lots and reclaims space once
// exhausted lots dominate the slice.
func (q *queue) dropExhausted() {
	for q.head < len(q.lots) && q.lots[q.head].RemainingAmount <= 0 {
		q.lots[q.head] = BuyLot{}
		q.head++
	}
	if q.head == len(q.lots) {
		q.lots = q.lots[:0]
		q.head = 0
		return
	}
	if q.head >= compactThreshold && q.head*2 >= len(q.lots) {
		n := copy(q.lots, q.lots[q.head:])
		for i := n; i < len(q.lots); i++ {
			q.lots[i] = BuyLot{}
		}
		q.lots = q.lots[:n]
		q.head = 0
	}
}

// Ledger keeps one FIFO queue of buy lots per asset.
// A Ledger belongs to a single run and is not safe for concurrent use.
type Ledger struct {
	base   domain.AssetSet
	queues map[string]*queue
	order  []string // assets in first-buy order
}

// New creates an empty ledger. A nil base set means domain.DefaultBaseAssets.
func New(base domain.AssetSet) *Ledger {
	if base == nil {
		base = domain.DefaultBaseAssets()
	}
	return &Ledger{
		base:   base,
		queues: make(map[string]*queue),
	}
}

// PositionAsset returns the non-base asset a trade opens or closes a position in.
//
// Buys count when they pay a base asset for a non-base asset; sells count when
// they give up a non-base asset for a base asset. Swaps, base-for-base trades and
// token-for-token trades are not position relevant.
func PositionAsset(t domain.TradeRecord, base domain.AssetSet) (string, bool) {
	switch t.Kind {
	case domain.TradeKindBuy:
		if base.Contains(t.InputAsset) && !base.Contains(t.OutputAsset) {
			return t.OutputAsset, true
		}
		return "", false
	case domain.TradeKindSell:
		if base.Contains(t.OutputAsset) && !base.Contains(t.InputAsset) {
			return t.InputAsset, true
		}
		return "", false
	case domain.TradeKindSwap:
		return "", false
	default:
		return "", false
	}
}

// RecordBuy appends a lot for a position-relevant buy.
// Returns false when the trade is not a recordable buy (wrong kind, base-for-base,
// negative or NaN amount).
func (l *Ledger) RecordBuy(t domain.TradeRecord) bool {
	if t.Kind != domain.TradeKindBuy {
		return false
	}
	asset, ok := PositionAsset(t, l.base)
	if !ok {
		return false
	}
	if t.OutputAmount < 0 || math.IsNaN(t.OutputAmount) || math.IsInf(t.OutputAmount, 0) {
		return false
	}

	cost := t.InputValueUSD.OrZero()
	lot := BuyLot{
		RemainingAmount:  t.OutputAmount,
		RemainingCostUSD: cost,
		UnitPriceUSD:     safeDiv(cost, t.OutputAmount),
		Origin:           t,
	}

	q, exists := l.queues[asset]
	if !exists {
		q = &queue{}
		l.queues[asset] = q
		l.order = append(l.order, asset)
	}
	q.lots = append(q.lots, lot)
	return true
}

// ConsumeSell matches a position-relevant sell against the asset's lots, oldest
// first. Returns false when nothing was matched: the trade is not a relevant sell,
// there is no buy history, or the sell amount is zero.
//
// Whatever part of the sell exceeds the available lots is left unmatched and
// contributes nothing; revenue is scaled down to the matched portion.
func (l *Ledger) ConsumeSell(t domain.TradeRecord) (SellMatch, bool) {
	if t.Kind != domain.TradeKindSell {
		return SellMatch{}, false
	}
	asset, ok := PositionAsset(t, l.base)
	if !ok {
		return SellMatch{}, false
	}
	q, exists := l.queues[asset]
	if !exists || len(q.live()) == 0 {
		return SellMatch{}, false
	}
	if !(t.InputAmount > 0) || math.IsInf(t.InputAmount, 0) {
		return SellMatch{}, false
	}

	m := SellMatch{
		Sell:                 t,
		Asset:                asset,
		Requested:            t.InputAmount,
		SellValuationMissing: !t.OutputValueUSD.IsSet(),
	}

	toSell := t.InputAmount
	for i := q.head; i < len(q.lots) && toSell > 0; i++ {
		lot := &q.lots[i]
		if lot.RemainingAmount <= 0 {
			continue
		}

		consumed := math.Min(toSell, lot.RemainingAmount)
		var cost float64
		if consumed == lot.RemainingAmount {
			cost = lot.RemainingCostUSD
			lot.RemainingAmount = 0
			lot.RemainingCostUSD = 0
		} else {
			cost = consumed / lot.RemainingAmount * lot.RemainingCostUSD
			lot.RemainingAmount -= consumed
			lot.RemainingCostUSD -= cost
		}

		if m.LotsMatched == 0 {
			m.OpenedAt = lot.Origin.Timestamp
		}
		m.LotsMatched++
		m.CostBasisUSD += cost
		if !lot.Origin.InputValueUSD.IsSet() {
			m.BuyValuationMissing = true
		}
		toSell -= consumed
	}
	q.dropExhausted()

	m.Matched = t.InputAmount - toSell
	if m.Matched <= 0 {
		return SellMatch{}, false
	}
	if toSell <= 0 {
		m.Matched = t.InputAmount
		m.RevenueUSD = t.OutputValueUSD.OrZero()
	} else {
		m.RevenueUSD = m.Matched / t.InputAmount * t.OutputValueUSD.OrZero()
	}
	m.PnLUSD = m.RevenueUSD - m.CostBasisUSD
	m.RemainingAfter = sumRemaining(q.live())

	return m, true
}

// Assets returns the assets that ever received a lot, in first-buy order.
func (l *Ledger) Assets() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Lots returns a copy of the live lots for an asset, oldest first.
func (l *Ledger) Lots(asset string) []BuyLot {
	q, ok := l.queues[asset]
	if !ok {
		return nil
	}
	live := q.live()
	out := make([]BuyLot, len(live))
	copy(out, live)
	return out
}

// Remaining returns the total unconsumed amount for an asset.
func (l *Ledger) Remaining(asset string) float64 {
	q, ok := l.queues[asset]
	if !ok {
		return 0
	}
	return sumRemaining(q.live())
}

func sumRemaining(lots []BuyLot) float64 {
	total := 0.0
	for _, lot := range lots {
		total += lot.RemainingAmount
	}
	return total
}

// safeDiv returns 0 instead of dividing by zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
