package normalization

import (
	"errors"
	"fmt"
	"sort"

	"solana-pnl-lab/internal/domain"
)

// ErrInvalidOrdering is returned when trades are not in normalized order.
var ErrInvalidOrdering = errors.New("trades are not in deterministic order")

// Stats describes what Normalize dropped.
type Stats struct {
	Input             int
	DuplicatesDropped int
}

// Normalize deduplicates trades by signature and orders them by timestamp ASC.
//
// The first occurrence of a signature (in input order) wins; later duplicates
// are dropped silently. Equal timestamps keep their input order. The input
// slice is not modified.
func Normalize(trades []domain.TradeRecord) ([]domain.TradeRecord, Stats) {
	deduped := Dedupe(trades)
	SortTrades(deduped)
	return deduped, Stats{
		Input:             len(trades),
		DuplicatesDropped: len(trades) - len(deduped),
	}
}

// Dedupe returns a copy of trades keeping the first record per signature.
func Dedupe(trades []domain.TradeRecord) []domain.TradeRecord {
	seen := make(map[string]struct{}, len(trades))
	out := make([]domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if _, dup := seen[t.Signature]; dup {
			continue
		}
		seen[t.Signature] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SortTrades orders trades by timestamp ASC, stable for equal timestamps.
func SortTrades(trades []domain.TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		return compareTrades(&trades[i], &trades[j]) < 0
	})
}

// ValidateOrdering checks that trades are sorted by timestamp and that no
// signature repeats. Returns an error wrapping ErrInvalidOrdering if not.
func ValidateOrdering(trades []domain.TradeRecord) error {
	seen := make(map[string]struct{}, len(trades))
	for i := range trades {
		if _, dup := seen[trades[i].Signature]; dup {
			return fmt.Errorf("%w: duplicate signature %s at %d", ErrInvalidOrdering, trades[i].Signature, i)
		}
		seen[trades[i].Signature] = struct{}{}

		if i > 0 && compareTrades(&trades[i-1], &trades[i]) > 0 {
			return fmt.Errorf("%w: timestamp %d after %d at %d",
				ErrInvalidOrdering, trades[i].Timestamp, trades[i-1].Timestamp, i)
		}
	}
	return nil
}

// compareTrades returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC). Ties are resolved by the caller's stable sort.
func compareTrades(a, b *domain.TradeRecord) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	return 0
}
