package metrics

import (
	"math"

	"solana-pnl-lab/internal/domain"
)

// computeStats derives TradeStats from per-sell PnL in chronological order.
// A sell with PnL <= 0 counts as a loss.
func computeStats(outcomes []float64) domain.TradeStats {
	n := len(outcomes)
	if n == 0 {
		return domain.TradeStats{}
	}

	var (
		wins, losses            int
		grossWin, grossLoss     float64
		largestWin, largestLoss float64
	)
	for _, o := range outcomes {
		if o > 0 {
			wins++
			grossWin += o
			largestWin = math.Max(largestWin, o)
			continue
		}
		losses++
		grossLoss += o
		largestLoss = math.Min(largestLoss, o)
	}

	return domain.TradeStats{
		MatchedSells:   n,
		Wins:           wins,
		Losses:         losses,
		AverageWinUSD:  computeMean(grossWin, wins),
		AverageLossUSD: computeMean(grossLoss, losses),
		LargestWinUSD:  largestWin,
		LargestLossUSD: largestLoss,
		ProfitFactor:   computeProfitFactor(grossWin, grossLoss),
		MaxDrawdownUSD: computeMaxDrawdown(outcomes),
	}
}

// computeWinRate returns wins / total as a percentage, 0 for an empty total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(wins) / float64(total)
}

func computeMean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// computeProfitFactor is gross wins over absolute gross losses; 0 without losses.
func computeProfitFactor(grossWin, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossWin / math.Abs(grossLoss)
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative outcomes.
// max_drawdown = MAX(peak_cumulative - trough_cumulative)
// Outcomes must be in chronological order.
func computeMaxDrawdown(outcomes []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, o := range outcomes {
		cumulative += o
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}
