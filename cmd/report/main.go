// Package main computes a wallet's realized PnL from a trade file or the
// configured store and writes PNL_REPORT.md (and POSITIONS.csv when positions
// are requested).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-pnl-lab/internal/app"
	"solana-pnl-lab/internal/config"
	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/logger"
	"solana-pnl-lab/internal/observability"
	"solana-pnl-lab/internal/pnl"
	"solana-pnl-lab/internal/reporting"
)

type options struct {
	configPath string
	input      string
	wallet     string
	outputDir  string

	includePositions bool
	trackBestTrade   bool
	parallel         bool
	set              map[string]bool // flags given on the command line
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", os.Getenv("PNL_LAB_CONFIG"), "Path to a YAML/JSON/TOML config file")
	flag.StringVar(&opts.input, "input", "", "Trade file (.json, .yaml, .csv); omit to read the configured store")
	flag.StringVar(&opts.wallet, "wallet", "", "Wallet address to report on")
	flag.StringVar(&opts.outputDir, "output-dir", "output", "Output directory for generated files")
	flag.BoolVar(&opts.includePositions, "include-positions", false, "Build positions and use the precise win rate")
	flag.BoolVar(&opts.trackBestTrade, "track-best-trade", true, "Report the most profitable trade")
	flag.BoolVar(&opts.parallel, "parallel", false, "Process assets concurrently")
	flag.Parse()

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.input == "" && opts.wallet == "" {
		fmt.Fprintln(os.Stderr, "Error: --wallet is required when reading from the store")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Config{Debug: cfg.DebugLogging, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, opts, log)
	stop()
	_ = log.Sync()
	_ = closeLog()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) error {
	engine := cfg.Engine()
	if opts.set["include-positions"] {
		engine.IncludePositions = opts.includePositions
	}
	if opts.set["track-best-trade"] {
		engine.TrackBestTrade = opts.trackBestTrade
	}
	if opts.set["parallel"] {
		engine.Parallel = opts.parallel
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	calc := pnl.NewCalculator(engine,
		pnl.WithLogger(logger.WithComponent(log, "engine")),
		pnl.WithRecorder(metrics),
	)

	var source ingestion.TradeSource = ingestion.FileSource{Path: opts.input}
	if opts.input == "" {
		if cfg.Storage == config.StorageMemory {
			return errors.New("memory storage is empty at startup; pass --input or configure postgres/sqlite")
		}
		stores, closeStores, err := app.OpenStores(ctx, cfg, logger.WithComponent(log, "storage"))
		if err != nil {
			return err
		}
		defer closeStores()
		source = ingestion.StoreSource{Store: stores.Trades}
	}

	report, err := reporting.NewGenerator(source, calc).Generate(ctx, opts.wallet)
	if err != nil {
		return err
	}

	files, err := reporting.WriteFiles(opts.outputDir, report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	s := report.Summary
	fmt.Printf("Trades:        %d\n", s.TradeCount)
	fmt.Printf("Realized PnL:  $%.2f\n", s.RealizedPnLUSD)
	fmt.Printf("Win rate:      %.2f%% (%s)\n", s.WinRate, s.WinRateMode)
	if s.HasBestTrade {
		fmt.Printf("Best trade:    $%.2f on %s\n", s.BestTrade.Profit, s.BestTrade.Asset)
	}
	if q := report.Quality; q.MissingValuations > 0 || q.SellsUnmatched > 0 {
		fmt.Printf("Data quality:  %d missing valuations, %d unmatched sells\n", q.MissingValuations, q.SellsUnmatched)
	}
	fmt.Println("Generated:")
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}
	return nil
}
