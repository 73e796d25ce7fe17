package ingestion

import (
	"errors"
	"fmt"
	"math"

	"github.com/mr-tron/base58"

	"solana-pnl-lab/internal/domain"
)

// ErrInvalidTrade is returned for records that cannot enter the engine.
var ErrInvalidTrade = errors.New("invalid trade")

const (
	signatureLen = 64
	pubkeyLen    = 32
)

// ValidateTrade checks structural sanity. With strict set it also requires a
// base58 transaction signature and base58 mint addresses (or known symbols).
func ValidateTrade(t domain.TradeRecord, strict bool) error {
	if t.Signature == "" {
		return fmt.Errorf("%w: empty signature", ErrInvalidTrade)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %s: unknown kind", ErrInvalidTrade, t.Signature)
	}
	if t.Timestamp < 0 {
		return fmt.Errorf("%w: %s: negative timestamp", ErrInvalidTrade, t.Signature)
	}
	for _, amt := range []float64{t.InputAmount, t.OutputAmount} {
		if amt < 0 || math.IsNaN(amt) || math.IsInf(amt, 0) {
			return fmt.Errorf("%w: %s: amount %v", ErrInvalidTrade, t.Signature, amt)
		}
	}
	for _, v := range []domain.OptionalUSD{t.InputValueUSD, t.OutputValueUSD} {
		if x := v.OrZero(); math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s: usd value %v", ErrInvalidTrade, t.Signature, x)
		}
	}

	if !strict {
		return nil
	}
	if !isBase58Len(t.Signature, signatureLen) {
		return fmt.Errorf("%w: %s: not a base58 transaction signature", ErrInvalidTrade, t.Signature)
	}
	for _, asset := range []string{t.InputAsset, t.OutputAsset} {
		if !validAsset(asset) {
			return fmt.Errorf("%w: %s: asset %q is neither a mint nor a known symbol", ErrInvalidTrade, t.Signature, asset)
		}
	}
	if t.Wallet != "" && !isBase58Len(t.Wallet, pubkeyLen) {
		return fmt.Errorf("%w: %s: wallet %q is not a base58 address", ErrInvalidTrade, t.Signature, t.Wallet)
	}
	return nil
}

// ValidWallet reports whether s decodes to a 32-byte public key.
func ValidWallet(s string) bool {
	return isBase58Len(s, pubkeyLen)
}

func validAsset(s string) bool {
	return domain.IsKnownSymbol(s) || isBase58Len(s, pubkeyLen)
}

func isBase58Len(s string, n int) bool {
	if s == "" {
		return false
	}
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == n
}
