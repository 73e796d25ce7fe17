package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"solana-pnl-lab/internal/domain"
)

var positionsHeader = []string{
	"position_id", "asset", "is_open",
	"total_bought", "total_sold", "remaining_tokens",
	"total_cost_usd", "total_revenue_usd", "realized_pnl_usd",
	"average_buy_price_usd", "average_sell_price_usd",
	"is_incomplete", "incomplete_reason",
	"opened_at", "closed_at", "lots_matched",
}

// RenderPositionsCSV renders positions as CSV with a header row.
func RenderPositionsCSV(positions []domain.TokenPosition) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(positionsHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range positions {
		err := w.Write([]string{
			p.PositionID,
			p.Asset,
			strconv.FormatBool(p.IsOpen),
			formatFloat(p.TotalBought),
			formatFloat(p.TotalSold),
			formatFloat(p.RemainingTokens),
			formatFloat(p.TotalCostUSD),
			formatFloat(p.TotalRevenueUSD),
			formatFloat(p.RealizedPnLUSD),
			formatFloat(p.AverageBuyPriceUSD),
			formatFloat(p.AverageSellPriceUSD),
			strconv.FormatBool(p.IsIncomplete),
			p.IncompleteReason,
			strconv.FormatInt(p.OpenedAt, 10),
			strconv.FormatInt(p.ClosedAt, 10),
			strconv.Itoa(p.LotsMatched),
		})
		if err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
