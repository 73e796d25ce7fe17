package reporting

import (
	"time"

	"solana-pnl-lab/internal/domain"
)

// Report is the rendered view of one PnL calculation.
type Report struct {
	GeneratedAt time.Time
	Wallet      string

	Summary SummarySection
	Stats   domain.TradeStats
	Quality domain.DataQuality

	// Per-asset rollup of closed positions, sorted by realized PnL DESC, asset ASC.
	Assets []AssetRow

	// Positions in result order. Empty unless positions were requested.
	Positions []domain.TokenPosition
}

// SummarySection holds the headline numbers.
type SummarySection struct {
	TradeCount     int
	RealizedPnLUSD float64
	WinRate        float64
	WinRateMode    string
	BestTrade      domain.BestTrade
	HasBestTrade   bool

	ClosedPositions     int
	OpenPositions       int
	IncompletePositions int
}

// AssetRow aggregates closed positions of one asset.
type AssetRow struct {
	Asset           string
	ClosedCount     int
	Wins            int
	RealizedPnLUSD  float64
	TotalCostUSD    float64
	TotalRevenueUSD float64
	OpenTokens      float64 // remaining amount of the open position, 0 if none
	Incomplete      int
}
