package domain

// TokenPosition is a reporting artifact for one asset.
//
// A closed position describes one matched sell (PositionID = sell signature) and
// never changes after it is built. An open position aggregates the lots still
// unconsumed at the end of a run, one per asset.
type TokenPosition struct {
	PositionID string `json:"position_id"`
	Asset      string `json:"asset"`
	IsOpen     bool   `json:"is_open"`

	TotalBought     float64 `json:"total_bought"`
	TotalSold       float64 `json:"total_sold"`
	RemainingTokens float64 `json:"remaining_tokens"`

	TotalCostUSD        float64 `json:"total_cost_usd"`
	TotalRevenueUSD     float64 `json:"total_revenue_usd"`
	RealizedPnLUSD      float64 `json:"realized_pnl_usd"`
	AverageBuyPriceUSD  float64 `json:"average_buy_price_usd"`
	AverageSellPriceUSD float64 `json:"average_sell_price_usd"`

	IsIncomplete     bool   `json:"is_incomplete"`
	IncompleteReason string `json:"incomplete_reason,omitempty"`

	OpenedAt    int64 `json:"opened_at"`           // oldest contributing buy (ms)
	ClosedAt    int64 `json:"closed_at,omitempty"` // sell time (ms), 0 when open
	LotsMatched int   `json:"lots_matched"`
}

// Incomplete reasons.
const (
	ReasonMissingBuyValuation  = "missing buy valuation"
	ReasonMissingSellValuation = "missing sell valuation"
)
