package domain

import (
	"fmt"
	"strings"
)

// TradeKind classifies a trade record.
// The zero value is not a valid kind; records must be parsed through ParseTradeKind.
type TradeKind int

// Trade kinds.
const (
	TradeKindBuy TradeKind = iota + 1
	TradeKindSell
	TradeKindSwap
)

// Wire names for trade kinds.
const (
	TradeKindNameBuy  = "buy"
	TradeKindNameSell = "sell"
	TradeKindNameSwap = "swap"
)

// String returns the wire name of the kind.
func (k TradeKind) String() string {
	switch k {
	case TradeKindBuy:
		return TradeKindNameBuy
	case TradeKindSell:
		return TradeKindNameSell
	case TradeKindSwap:
		return TradeKindNameSwap
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k TradeKind) Valid() bool {
	switch k {
	case TradeKindBuy, TradeKindSell, TradeKindSwap:
		return true
	default:
		return false
	}
}

// ParseTradeKind maps a wire name (case-insensitive) to a TradeKind.
func ParseTradeKind(s string) (TradeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case TradeKindNameBuy:
		return TradeKindBuy, nil
	case TradeKindNameSell:
		return TradeKindSell, nil
	case TradeKindNameSwap:
		return TradeKindSwap, nil
	default:
		return 0, fmt.Errorf("unknown trade kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TradeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid trade kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TradeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTradeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TradeRecord is one observed trade of a wallet.
// Signature is the dedup key; Timestamp is Unix milliseconds.
type TradeRecord struct {
	Signature string    // transaction signature, unique per trade
	Wallet    string    // owner wallet (storage only, ignored by the ledger)
	Kind      TradeKind // buy | sell | swap
	Timestamp int64     // block time (ms)

	InputAsset   string  // mint or symbol given up
	InputAmount  float64 // asset-native units
	OutputAsset  string  // mint or symbol received
	OutputAmount float64 // asset-native units

	InputValueUSD  OptionalUSD // absent when the price source had no quote
	OutputValueUSD OptionalUSD
}

// HasMissingValuation reports whether either USD valuation is absent.
func (t TradeRecord) HasMissingValuation() bool {
	return !t.InputValueUSD.IsSet() || !t.OutputValueUSD.IsSet()
}
