package normalization

import (
	"errors"
	"testing"

	"solana-pnl-lab/internal/domain"
)

func trade(sig string, ts int64, amount float64) domain.TradeRecord {
	return domain.TradeRecord{
		Signature:   sig,
		Kind:        domain.TradeKindBuy,
		Timestamp:   ts,
		InputAsset:  domain.AssetSOL,
		OutputAsset: "X",
		InputAmount: amount,
	}
}

func signatures(trades []domain.TradeRecord) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.Signature
	}
	return out
}

func TestNormalize_SortsByTimestamp(t *testing.T) {
	input := []domain.TradeRecord{
		trade("c", 3000, 1),
		trade("a", 1000, 1),
		trade("b", 2000, 1),
	}

	got, stats := Normalize(input)

	want := []string{"a", "b", "c"}
	for i, sig := range signatures(got) {
		if sig != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], sig)
		}
	}
	if stats.DuplicatesDropped != 0 {
		t.Errorf("expected 0 duplicates, got %d", stats.DuplicatesDropped)
	}
	// Input must not be reordered in place.
	if input[0].Signature != "c" {
		t.Errorf("input was mutated: first signature %s", input[0].Signature)
	}
}

func TestNormalize_StableForEqualTimestamps(t *testing.T) {
	input := []domain.TradeRecord{
		trade("z", 1000, 1),
		trade("a", 1000, 1),
		trade("m", 500, 1),
		trade("b", 1000, 1),
	}

	got, _ := Normalize(input)

	want := []string{"m", "z", "a", "b"}
	for i, sig := range signatures(got) {
		if sig != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], sig)
		}
	}
}

func TestNormalize_FirstOccurrenceWins(t *testing.T) {
	input := []domain.TradeRecord{
		trade("dup", 2000, 10),
		trade("other", 1000, 1),
		trade("dup", 500, 99), // earlier timestamp, but encountered later
	}

	got, stats := Normalize(input)

	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if stats.DuplicatesDropped != 1 {
		t.Errorf("expected 1 duplicate dropped, got %d", stats.DuplicatesDropped)
	}
	if got[1].Signature != "dup" || got[1].InputAmount != 10 || got[1].Timestamp != 2000 {
		t.Errorf("expected first-encountered dup (amount 10 @2000), got %+v", got[1])
	}
}

func TestNormalize_Empty(t *testing.T) {
	got, stats := Normalize(nil)
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d", len(got))
	}
	if stats.Input != 0 {
		t.Errorf("expected input 0, got %d", stats.Input)
	}
}

func TestValidateOrdering(t *testing.T) {
	ok := []domain.TradeRecord{trade("a", 1, 1), trade("b", 1, 1), trade("c", 2, 1)}
	if err := ValidateOrdering(ok); err != nil {
		t.Errorf("expected valid ordering, got %v", err)
	}

	unsorted := []domain.TradeRecord{trade("a", 2, 1), trade("b", 1, 1)}
	if err := ValidateOrdering(unsorted); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for unsorted, got %v", err)
	}

	dup := []domain.TradeRecord{trade("a", 1, 1), trade("a", 2, 1)}
	if err := ValidateOrdering(dup); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for duplicate, got %v", err)
	}
}

func TestNormalize_OutputPassesValidation(t *testing.T) {
	input := []domain.TradeRecord{
		trade("a", 5, 1), trade("b", 3, 1), trade("a", 1, 1), trade("c", 3, 1),
	}
	got, _ := Normalize(input)
	if err := ValidateOrdering(got); err != nil {
		t.Errorf("normalized output failed validation: %v", err)
	}
}
