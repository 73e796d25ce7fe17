package reporting

import (
	"fmt"
	"strings"
	"time"

	"solana-pnl-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# PnL Report\n\n")
	if r.Wallet != "" {
		sb.WriteString(fmt.Sprintf("Wallet: `%s`\n\n", r.Wallet))
	}
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.TradeCount))
	sb.WriteString(fmt.Sprintf("| Realized PnL (USD) | %.2f |\n", s.RealizedPnLUSD))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% (%s) |\n", s.WinRate, s.WinRateMode))
	if s.HasBestTrade {
		sb.WriteString(fmt.Sprintf("| Best Trade | %.2f on `%s` |\n", s.BestTrade.Profit, s.BestTrade.Asset))
	} else {
		sb.WriteString("| Best Trade | n/a |\n")
	}
	sb.WriteString(fmt.Sprintf("| Closed Positions | %d |\n", s.ClosedPositions))
	sb.WriteString(fmt.Sprintf("| Open Positions | %d |\n", s.OpenPositions))
	sb.WriteString(fmt.Sprintf("| Incomplete Positions | %d |\n", s.IncompletePositions))
	sb.WriteString("\n")

	st := r.Stats
	sb.WriteString("## Trade Statistics\n\n")
	if st.MatchedSells > 0 {
		sb.WriteString("| Matched Sells | Wins | Losses | Avg Win | Avg Loss | Largest Win | Largest Loss | Profit Factor | Max Drawdown |\n")
		sb.WriteString("|---------------|------|--------|---------|----------|-------------|--------------|---------------|--------------|\n")
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.2f | %.2f | %.2f | %.2f | %s | %.2f |\n",
			st.MatchedSells, st.Wins, st.Losses,
			st.AverageWinUSD, st.AverageLossUSD, st.LargestWinUSD, st.LargestLossUSD,
			formatProfitFactor(st), st.MaxDrawdownUSD))
	} else {
		sb.WriteString("No matched sells.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Assets\n\n")
	if len(r.Assets) > 0 {
		sb.WriteString("| Asset | Closed | Wins | Cost | Revenue | Realized PnL | Open Tokens | Incomplete |\n")
		sb.WriteString("|-------|--------|------|------|---------|--------------|-------------|------------|\n")
		for _, a := range r.Assets {
			sb.WriteString(fmt.Sprintf("| `%s` | %d | %d | %.2f | %.2f | %.2f | %.6f | %d |\n",
				a.Asset, a.ClosedCount, a.Wins, a.TotalCostUSD, a.TotalRevenueUSD,
				a.RealizedPnLUSD, a.OpenTokens, a.Incomplete))
		}
	} else {
		sb.WriteString("Per-asset breakdown requires positions.\n")
	}
	sb.WriteString("\n")

	q := r.Quality
	sb.WriteString("## Data Quality\n\n")
	issues := []struct {
		name  string
		count int
	}{
		{"Duplicate signatures dropped", q.DuplicatesDropped},
		{"Swaps ignored", q.SwapsIgnored},
		{"Buys ignored", q.BuysIgnored},
		{"Sells without inventory", q.SellsUnmatched},
		{"Sells partially matched", q.SellsPartiallyMatched},
		{"Missing USD valuations", q.MissingValuations},
	}
	clean := true
	for _, is := range issues {
		if is.count > 0 {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", is.name, is.count))
			clean = false
		}
	}
	if clean {
		sb.WriteString("No data quality issues.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatProfitFactor prints n/a when there are no losses to divide by.
func formatProfitFactor(st domain.TradeStats) string {
	if st.Losses == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", st.ProfitFactor)
}
