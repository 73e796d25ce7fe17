package domain

// Win rate modes.
const (
	WinRateModePrecise   = "precise"
	WinRateModeHeuristic = "heuristic"
)

// BestTrade is the single most profitable matched sell.
type BestTrade struct {
	Profit    float64 `json:"profit"`
	Asset     string  `json:"asset"`
	Signature string  `json:"signature,omitempty"`
}

// DataQuality counts records the engine absorbed instead of failing on.
type DataQuality struct {
	DuplicatesDropped     int `json:"duplicates_dropped"`
	SwapsIgnored          int `json:"swaps_ignored"`
	BuysIgnored           int `json:"buys_ignored"`
	SellsUnmatched        int `json:"sells_unmatched"`
	SellsPartiallyMatched int `json:"sells_partially_matched"`
	MissingValuations     int `json:"missing_valuations"`
}

// TradeStats describes the distribution of realized PnL over matched sells.
type TradeStats struct {
	MatchedSells   int     `json:"matched_sells"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	AverageWinUSD  float64 `json:"average_win_usd"`
	AverageLossUSD float64 `json:"average_loss_usd"`
	LargestWinUSD  float64 `json:"largest_win_usd"`
	LargestLossUSD float64 `json:"largest_loss_usd"`
	ProfitFactor   float64 `json:"profit_factor"`    // gross wins / |gross losses|, 0 without losses
	MaxDrawdownUSD float64 `json:"max_drawdown_usd"` // peak-to-trough of cumulative realized PnL
}

// PnLResult is the output of one calculation.
// Positions is nil unless positions were requested.
type PnLResult struct {
	RealizedPnLUSD float64         `json:"realized_pnl_usd"`
	TradeCount     int             `json:"trade_count"`
	WinRate        float64         `json:"win_rate"` // 0..100
	WinRateMode    string          `json:"win_rate_mode"`
	BestTrade      BestTrade       `json:"best_trade"`
	Stats          TradeStats      `json:"stats"`
	Quality        DataQuality     `json:"quality"`
	Positions      []TokenPosition `json:"positions,omitempty"`
}

// ClosedPositions returns the closed positions in build order.
func (r *PnLResult) ClosedPositions() []TokenPosition {
	var out []TokenPosition
	for _, p := range r.Positions {
		if !p.IsOpen {
			out = append(out, p)
		}
	}
	return out
}

// OpenPositions returns the open positions in build order.
func (r *PnLResult) OpenPositions() []TokenPosition {
	var out []TokenPosition
	for _, p := range r.Positions {
		if p.IsOpen {
			out = append(out, p)
		}
	}
	return out
}

// IncompleteCount returns the number of positions flagged incomplete.
func (r *PnLResult) IncompleteCount() int {
	n := 0
	for _, p := range r.Positions {
		if p.IsIncomplete {
			n++
		}
	}
	return n
}
