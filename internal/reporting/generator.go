// Package reporting renders PnL results as markdown summaries and CSV tables.
package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/pnl"
)

// Output file names written by WriteFiles.
const (
	SummaryFile   = "PNL_REPORT.md"
	PositionsFile = "POSITIONS.csv"
)

// Generator produces reports from a trade source.
type Generator struct {
	source ingestion.TradeSource
	calc   *pnl.Calculator
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(source ingestion.TradeSource, calc *pnl.Calculator) *Generator {
	return &Generator{
		source: source,
		calc:   calc,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads the wallet's full history, runs the calculator and builds
// the report.
func (g *Generator) Generate(ctx context.Context, wallet string) (*Report, error) {
	trades, err := g.source.Fetch(ctx, wallet, ingestion.AllTimeFrom, ingestion.AllTimeTo)
	if err != nil {
		return nil, err
	}

	result, err := g.calc.Calculate(ctx, trades)
	if err != nil {
		return nil, fmt.Errorf("calculate pnl: %w", err)
	}
	return Build(wallet, result, g.now()), nil
}

// Build turns a result into a report.
func Build(wallet string, r *domain.PnLResult, generatedAt time.Time) *Report {
	closed := r.ClosedPositions()
	open := r.OpenPositions()

	return &Report{
		GeneratedAt: generatedAt,
		Wallet:      wallet,
		Summary: SummarySection{
			TradeCount:          r.TradeCount,
			RealizedPnLUSD:      r.RealizedPnLUSD,
			WinRate:             r.WinRate,
			WinRateMode:         r.WinRateMode,
			BestTrade:           r.BestTrade,
			HasBestTrade:        r.BestTrade.Asset != domain.NoAsset,
			ClosedPositions:     len(closed),
			OpenPositions:       len(open),
			IncompletePositions: r.IncompleteCount(),
		},
		Stats:     r.Stats,
		Quality:   r.Quality,
		Assets:    assetRows(closed, open),
		Positions: r.Positions,
	}
}

func assetRows(closed, open []domain.TokenPosition) []AssetRow {
	byAsset := make(map[string]*AssetRow)
	row := func(asset string) *AssetRow {
		ar, ok := byAsset[asset]
		if !ok {
			ar = &AssetRow{Asset: asset}
			byAsset[asset] = ar
		}
		return ar
	}

	for _, p := range closed {
		ar := row(p.Asset)
		ar.ClosedCount++
		ar.RealizedPnLUSD += p.RealizedPnLUSD
		ar.TotalCostUSD += p.TotalCostUSD
		ar.TotalRevenueUSD += p.TotalRevenueUSD
		if p.RealizedPnLUSD > 0 && !p.IsIncomplete {
			ar.Wins++
		}
		if p.IsIncomplete {
			ar.Incomplete++
		}
	}
	for _, p := range open {
		ar := row(p.Asset)
		ar.OpenTokens = p.RemainingTokens
		if p.IsIncomplete {
			ar.Incomplete++
		}
	}

	rows := make([]AssetRow, 0, len(byAsset))
	for _, ar := range byAsset {
		rows = append(rows, *ar)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RealizedPnLUSD != rows[j].RealizedPnLUSD {
			return rows[i].RealizedPnLUSD > rows[j].RealizedPnLUSD
		}
		return rows[i].Asset < rows[j].Asset
	})
	return rows
}

// WriteFiles renders r into dir, creating it if needed, and returns the
// written paths. The positions CSV is skipped when r has no positions.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	summaryPath := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(summaryPath, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", SummaryFile, err)
	}
	written := []string{summaryPath}

	if len(r.Positions) == 0 {
		return written, nil
	}

	csvData, err := RenderPositionsCSV(r.Positions)
	if err != nil {
		return written, err
	}
	positionsPath := filepath.Join(dir, PositionsFile)
	if err := os.WriteFile(positionsPath, csvData, 0o644); err != nil {
		return written, fmt.Errorf("write %s: %w", PositionsFile, err)
	}
	return append(written, positionsPath), nil
}
