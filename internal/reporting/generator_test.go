package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/pnl"
)

type sliceSource struct {
	trades []domain.TradeRecord
	err    error
}

func (s sliceSource) Fetch(context.Context, string, int64, int64) ([]domain.TradeRecord, error) {
	return s.trades, s.err
}

var fixedTime = time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

func testTrades() []domain.TradeRecord {
	return []domain.TradeRecord{
		{Signature: "b1", Kind: domain.TradeKindBuy, Timestamp: 1000,
			InputAsset: domain.AssetSOL, InputAmount: 1, OutputAsset: "X", OutputAmount: 100,
			InputValueUSD: domain.USD(50)},
		{Signature: "s1", Kind: domain.TradeKindSell, Timestamp: 2000,
			InputAsset: "X", InputAmount: 100, OutputAsset: domain.AssetSOL, OutputAmount: 1.5,
			OutputValueUSD: domain.USD(80)},
		{Signature: "b2", Kind: domain.TradeKindBuy, Timestamp: 3000,
			InputAsset: domain.AssetUSDC, InputAmount: 20, OutputAsset: "Y", OutputAmount: 10},
		{Signature: "b1", Kind: domain.TradeKindBuy, Timestamp: 1000},
	}
}

func generate(t *testing.T, includePositions bool) *Report {
	t.Helper()
	cfg := pnl.DefaultConfig()
	cfg.IncludePositions = includePositions

	g := NewGenerator(sliceSource{trades: testTrades()}, pnl.NewCalculator(cfg)).
		WithClock(func() time.Time { return fixedTime })

	r, err := g.Generate(context.Background(), "wallet-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return r
}

func TestGenerate_Summary(t *testing.T) {
	r := generate(t, true)

	if r.Summary.TradeCount != 3 {
		t.Errorf("expected 3 trades, got %d", r.Summary.TradeCount)
	}
	if r.Summary.RealizedPnLUSD != 30 {
		t.Errorf("expected PnL 30, got %f", r.Summary.RealizedPnLUSD)
	}
	if !r.Summary.HasBestTrade || r.Summary.BestTrade.Asset != "X" {
		t.Errorf("unexpected best trade: %+v", r.Summary.BestTrade)
	}
	if r.Summary.ClosedPositions != 1 || r.Summary.OpenPositions != 1 {
		t.Errorf("expected 1 closed and 1 open, got %d/%d", r.Summary.ClosedPositions, r.Summary.OpenPositions)
	}
	if r.Summary.IncompletePositions != 1 {
		t.Errorf("expected the unvalued open position to be incomplete, got %d", r.Summary.IncompletePositions)
	}
	if r.Quality.DuplicatesDropped != 1 {
		t.Errorf("expected 1 duplicate, got %d", r.Quality.DuplicatesDropped)
	}

	if len(r.Assets) != 2 {
		t.Fatalf("expected 2 asset rows, got %d", len(r.Assets))
	}
	if r.Assets[0].Asset != "X" || r.Assets[0].Wins != 1 {
		t.Errorf("unexpected first asset row: %+v", r.Assets[0])
	}
	if r.Assets[1].Asset != "Y" || r.Assets[1].OpenTokens != 10 {
		t.Errorf("unexpected second asset row: %+v", r.Assets[1])
	}
}

func TestGenerate_SourceError(t *testing.T) {
	boom := errors.New("store down")
	g := NewGenerator(sliceSource{err: boom}, pnl.NewCalculator(pnl.DefaultConfig()))
	if _, err := g.Generate(context.Background(), "w"); !errors.Is(err, boom) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(generate(t, true))

	for _, want := range []string{
		"# PnL Report",
		"Wallet: `wallet-1`",
		"Generated: 2025-01-04T12:00:00Z",
		"| Realized PnL (USD) | 30.00 |",
		"| Win Rate | 100.00% (precise) |",
		"| Best Trade | 30.00 on `X` |",
		"| Profit Factor |",
		"- Duplicate signatures dropped: 1",
		"- Missing USD valuations: 1",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	r := Build("", &domain.PnLResult{BestTrade: domain.BestTrade{Asset: domain.NoAsset}}, fixedTime)
	md := RenderMarkdown(r)

	for _, want := range []string{"| Best Trade | n/a |", "No matched sells.", "No data quality issues."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "Wallet:") {
		t.Error("wallet line should be omitted when empty")
	}
}

func TestRenderPositionsCSV(t *testing.T) {
	r := generate(t, true)
	data, err := RenderPositionsCSV(r.Positions)
	if err != nil {
		t.Fatalf("RenderPositionsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "position_id,asset,is_open") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "s1,X,false,") {
		t.Errorf("unexpected closed row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "missing buy valuation") {
		t.Errorf("expected incomplete reason in open row: %s", lines[2])
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteFiles(dir, generate(t, true))
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	paths, err = WriteFiles(t.TempDir(), generate(t, false))
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != SummaryFile {
		t.Errorf("expected only the summary without positions, got %v", paths)
	}
}
