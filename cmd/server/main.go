// Package main runs the PnL HTTP service: trade ingestion, wallet PnL
// calculation with snapshot persistence, Prometheus metrics and optional tracing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-pnl-lab/internal/api"
	"solana-pnl-lab/internal/app"
	"solana-pnl-lab/internal/config"
	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/logger"
	"solana-pnl-lab/internal/observability"
	"solana-pnl-lab/internal/pnl"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("PNL_LAB_CONFIG"), "Path to a YAML/JSON/TOML config file")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides listen_addr)")
	strict := flag.Bool("strict", false, "Require base58 signatures, wallets and mints on ingestion")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	log, closeLog, err := logger.New(logger.Config{Debug: cfg.DebugLogging, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
		_ = closeLog()
	}()

	if err := run(cfg, *strict, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg *config.Config, strict bool, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := app.OpenStores(ctx, cfg, logger.WithComponent(log, "storage"))
	if err != nil {
		return err
	}
	defer closeStores()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	tracing, err := observability.NewTracing("solana-pnl-lab", cfg.TracingEnabled, os.Stdout)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	calc := pnl.NewCalculator(cfg.Engine(),
		pnl.WithLogger(logger.WithComponent(log, "engine")),
		pnl.WithRecorder(metrics),
	)

	server := api.NewServer(api.Deps{
		Calculator: calc,
		Trades:     stores.Trades,
		Snapshots:  stores.Snapshots,
		Positions:  stores.Positions,
		Ingest:     ingestion.NewManager(stores.Trades, strict, logger.WithComponent(log, "ingestion")),
		Metrics:    metrics,
		Tracing:    tracing,
		Logger:     logger.WithComponent(log, "api"),
	}, api.Options{
		CacheTTL:       cfg.CacheTTL,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("storage", stores.Backend),
			zap.Bool("tracing", tracing.Enabled()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("received shutdown signal, draining connections", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
