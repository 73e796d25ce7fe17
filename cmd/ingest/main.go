// Package main loads trade files (.json, .yaml, .csv) into the configured
// trade store. Re-running over the same files stores nothing new.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-pnl-lab/internal/app"
	"solana-pnl-lab/internal/config"
	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("PNL_LAB_CONFIG"), "Path to a YAML/JSON/TOML config file")
	wallet := flag.String("wallet", "", "Wallet the trades belong to (default: the wallet named in each file)")
	strict := flag.Bool("strict", false, "Require base58 signatures, wallets and mints")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE|DIR...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage == config.StorageMemory {
		fmt.Fprintln(os.Stderr, "Error: ingestion needs persistent storage; set storage to postgres or sqlite")
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Config{Debug: cfg.DebugLogging, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, *wallet, *strict, flag.Args(), log)
	stop()
	_ = log.Sync()
	_ = closeLog()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, wallet string, strict bool, args []string, log *zap.Logger) error {
	files, err := expand(args)
	if err != nil {
		return err
	}

	stores, closeStores, err := app.OpenStores(ctx, cfg, logger.WithComponent(log, "storage"))
	if err != nil {
		return err
	}
	defer closeStores()

	manager := ingestion.NewManager(stores.Trades, strict, logger.WithComponent(log, "ingestion"))

	var total ingestion.Stats
	for _, path := range files {
		trades, err := ingestion.LoadFile(path)
		if err != nil {
			return err
		}

		target := wallet
		if target == "" {
			target = fileWallet(trades)
		}
		if target == "" {
			return fmt.Errorf("%s: no wallet in file; pass --wallet", path)
		}

		stats, err := manager.Ingest(ctx, target, trades)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Printf("%s: %d trades, %d new, %d duplicates\n", path, stats.Received, stats.Stored, stats.Duplicates)

		total.Received += stats.Received
		total.Stored += stats.Stored
		total.Duplicates += stats.Duplicates
	}

	fmt.Printf("Total: %d trades from %d files, %d new, %d duplicates\n",
		total.Received, len(files), total.Stored, total.Duplicates)
	return nil
}

// expand replaces directories with the trade files they contain, sorted by name.
func expand(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(arg, e.Name())
			if _, err := ingestion.FormatFromPath(path); err == nil {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no trade files found")
	}
	return files, nil
}

// fileWallet returns the first wallet named by the file's trades.
func fileWallet(trades []domain.TradeRecord) string {
	for _, t := range trades {
		if t.Wallet != "" {
			return t.Wallet
		}
	}
	return ""
}
