package domain

// PnLSnapshot is a persisted summary of one calculation for a wallet.
// Corresponds to pnl_snapshots table in ClickHouse.
type PnLSnapshot struct {
	SnapshotID    string `json:"snapshot_id"` // deterministic hash of (wallet, last_signature, trade_count, variant)
	Wallet        string `json:"wallet"`
	ComputedAt    int64  `json:"computed_at"` // ms
	TradeCount    int    `json:"trade_count"`
	LastSignature string `json:"last_signature"` // signature of the newest trade included

	RealizedPnLUSD float64 `json:"realized_pnl_usd"`
	WinRate        float64 `json:"win_rate"`
	WinRateMode    string  `json:"win_rate_mode"`

	BestTradeProfit    float64 `json:"best_trade_profit"`
	BestTradeAsset     string  `json:"best_trade_asset"`
	BestTradeSignature string  `json:"best_trade_signature"`

	ClosedPositions     int `json:"closed_positions"`
	OpenPositions       int `json:"open_positions"`
	IncompletePositions int `json:"incomplete_positions"`
	DuplicatesDropped   int `json:"duplicates_dropped"`
}

// NewSnapshot summarizes a result for persistence.
func NewSnapshot(snapshotID, wallet string, computedAt int64, lastSignature string, r *PnLResult) *PnLSnapshot {
	return &PnLSnapshot{
		SnapshotID:          snapshotID,
		Wallet:              wallet,
		ComputedAt:          computedAt,
		TradeCount:          r.TradeCount,
		LastSignature:       lastSignature,
		RealizedPnLUSD:      r.RealizedPnLUSD,
		WinRate:             r.WinRate,
		WinRateMode:         r.WinRateMode,
		BestTradeProfit:     r.BestTrade.Profit,
		BestTradeAsset:      r.BestTrade.Asset,
		BestTradeSignature:  r.BestTrade.Signature,
		ClosedPositions:     len(r.ClosedPositions()),
		OpenPositions:       len(r.OpenPositions()),
		IncompletePositions: r.IncompleteCount(),
		DuplicatesDropped:   r.Quality.DuplicatesDropped,
	}
}
