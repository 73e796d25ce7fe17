package domain

// Well-known base (quote) assets on Solana.
const (
	AssetSOL  = "SOL"
	MintWSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT  = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	AssetUSDC = "USDC"
	AssetUSDT = "USDT"
)

// NoAsset is the best-trade asset when no sell matched any lot.
const NoAsset = ""

// AssetSet is a set of asset identifiers.
type AssetSet map[string]struct{}

// NewAssetSet builds a set from identifiers. Empty identifiers are skipped.
func NewAssetSet(ids ...string) AssetSet {
	s := make(AssetSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// DefaultBaseAssets returns the assets positions are priced against:
// native SOL, wrapped SOL, USDC and USDT (mints and symbols).
func DefaultBaseAssets() AssetSet {
	return NewAssetSet(AssetSOL, MintWSOL, MintUSDC, MintUSDT, AssetUSDC, AssetUSDT)
}

// Contains reports whether id is in the set.
func (s AssetSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IsKnownSymbol reports whether id is one of the base-asset symbols rather than a mint.
func IsKnownSymbol(id string) bool {
	switch id {
	case AssetSOL, AssetUSDC, AssetUSDT:
		return true
	default:
		return false
	}
}
