package pnl

import (
	"runtime"
	"time"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/metrics"
)

// Config controls one calculation.
// IncludePositions and TrackBestTrade never change RealizedPnLUSD.
type Config struct {
	IncludePositions bool
	TrackBestTrade   bool

	// BaseAssets are the quote assets positions are opened and closed against.
	// Nil means domain.DefaultBaseAssets.
	BaseAssets domain.AssetSet

	// Heuristic win rate settings, used when IncludePositions is false.
	HeuristicWindow    time.Duration
	HeuristicThreshold float64 // fraction, 0.01 = 1%

	// Parallel runs each asset's ledger on its own worker. Output is identical
	// to a sequential run.
	Parallel bool
	Workers  int // <= 0 means GOMAXPROCS
}

// DefaultConfig returns the default options.
func DefaultConfig() Config {
	return Config{
		IncludePositions:   false,
		TrackBestTrade:     true,
		HeuristicWindow:    metrics.DefaultHeuristicWindow,
		HeuristicThreshold: metrics.DefaultHeuristicThreshold,
	}
}

func (c Config) baseAssets() domain.AssetSet {
	if c.BaseAssets == nil {
		return domain.DefaultBaseAssets()
	}
	return c.BaseAssets
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
