// Package api serves PnL calculations and trade ingestion over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/observability"
	"solana-pnl-lab/internal/pnl"
	"solana-pnl-lab/internal/storage"
)

// Deps are the collaborators of a Server. Trades and Calculator are required;
// a nil Snapshots or Positions store disables persistence of that kind.
type Deps struct {
	Calculator *pnl.Calculator
	Trades     storage.TradeRecordStore
	Snapshots  storage.PnLSnapshotStore
	Positions  storage.PositionStore
	Ingest     *ingestion.Manager

	Metrics *observability.Metrics
	Tracing *observability.Tracing
	Logger  *zap.Logger
}

// Options tune caching and rate limiting. Zero values disable each.
// MaxBodyBytes caps request bodies; zero means 32 MiB.
type Options struct {
	CacheTTL       time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
}

const defaultMaxBodyBytes = 32 << 20

// Server holds the handlers' dependencies.
type Server struct {
	calc      *pnl.Calculator
	trades    storage.TradeRecordStore
	snapshots storage.PnLSnapshotStore
	positions storage.PositionStore
	ingest    *ingestion.Manager
	metrics   *observability.Metrics
	tracing   *observability.Tracing
	logger    *zap.Logger

	cache   *cache.Cache // nil when CacheTTL is 0
	limiter *rate.Limiter
	maxBody int64
	now     func() time.Time

	mu       sync.Mutex
	versions map[string]uint64 // wallet -> trade history version
}

// NewServer creates a server.
func NewServer(deps Deps, opts Options) *Server {
	s := &Server{
		calc:      deps.Calculator,
		trades:    deps.Trades,
		snapshots: deps.Snapshots,
		positions: deps.Positions,
		ingest:    deps.Ingest,
		metrics:   deps.Metrics,
		tracing:   deps.Tracing,
		logger:    deps.Logger,
		maxBody:   opts.MaxBodyBytes,
		now:       time.Now,
		versions:  make(map[string]uint64),
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.ingest == nil {
		s.ingest = ingestion.NewManager(deps.Trades, false, s.logger)
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return s
}

// Router builds the route table.
//
//	GET  /health
//	GET  /metrics
//	POST /api/v1/pnl
//	GET  /api/v1/wallets/{wallet}/pnl
//	POST /api/v1/wallets/{wallet}/trades
//	GET  /api/v1/wallets/{wallet}/snapshots/latest
//
// Recovery, request IDs, logging and tracing wrap every route; rate limiting
// applies to /api/v1 only.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.recoveryMiddleware)
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.tracingMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	if s.limiter != nil {
		api.Use(rateLimitMiddleware(s.limiter))
	}
	api.HandleFunc("/pnl", s.handleCalculate).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{wallet}/pnl", s.handleWalletPnL).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{wallet}/trades", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{wallet}/snapshots/latest", s.handleLatestSnapshot).Methods(http.MethodGet)

	return router
}

// cacheKey names a cached wallet result. The key embeds the wallet's history
// version, so a result computed before an ingest can never be served after it.
func (s *Server) cacheKey(wallet string, includePositions, trackBest bool) string {
	s.mu.Lock()
	version := s.versions[wallet]
	s.mu.Unlock()
	return fmt.Sprintf("%s|%d|%t|%t", wallet, version, includePositions, trackBest)
}

// invalidate bumps wallet's history version and drops its cached results.
func (s *Server) invalidate(wallet string) {
	s.mu.Lock()
	s.versions[wallet]++
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	prefix := wallet + "|"
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}
