// Package pnl computes realized profit and loss for a wallet's trade history
// using FIFO cost-basis lot matching.
package pnl

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/ledger"
	"solana-pnl-lab/internal/metrics"
	"solana-pnl-lab/internal/normalization"
	"solana-pnl-lab/internal/positions"
)

// Recorder receives one observation per finished calculation.
type Recorder interface {
	RecordCalculation(result *domain.PnLResult, duration time.Duration)
}

// Calculator runs calculations with a fixed Config.
// It holds no per-run state and is safe for concurrent use.
type Calculator struct {
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Calculator) {
		c.recorder = r
	}
}

// NewCalculator creates a calculator.
func NewCalculator(cfg Config, opts ...Option) *Calculator {
	c := &Calculator{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the calculator's configuration.
func (c *Calculator) Config() Config {
	return c.cfg
}

// WithConfig returns a calculator sharing c's logger and recorder but using cfg.
func (c *Calculator) WithConfig(cfg Config) *Calculator {
	clone := *c
	clone.cfg = cfg
	return &clone
}

// Calculate computes the PnL result for trades in any order.
// The only error is ctx cancellation while partitions run in parallel.
func (c *Calculator) Calculate(ctx context.Context, trades []domain.TradeRecord) (*domain.PnLResult, error) {
	started := time.Now()

	result, err := c.calculate(ctx, trades)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	c.logger.Debug("pnl calculated",
		zap.Int("trades", result.TradeCount),
		zap.Int("matched_sells", result.Stats.MatchedSells),
		zap.Float64("realized_pnl_usd", result.RealizedPnLUSD),
		zap.Float64("win_rate", result.WinRate),
		zap.String("win_rate_mode", result.WinRateMode),
		zap.Bool("parallel", c.cfg.Parallel),
		zap.Duration("elapsed", elapsed),
	)
	if q := result.Quality; q.MissingValuations > 0 || q.SellsUnmatched > 0 {
		c.logger.Warn("incomplete trade history",
			zap.Int("missing_valuations", q.MissingValuations),
			zap.Int("sells_unmatched", q.SellsUnmatched),
			zap.Int("sells_partially_matched", q.SellsPartiallyMatched),
		)
	}
	if c.recorder != nil {
		c.recorder.RecordCalculation(result, elapsed)
	}
	return result, nil
}

// Calculate runs a sequential calculation with cfg.
func Calculate(trades []domain.TradeRecord, cfg Config) *domain.PnLResult {
	cfg.Parallel = false
	// Sequential runs never observe ctx.
	result, _ := NewCalculator(cfg).calculate(context.Background(), trades)
	return result
}

// sequenced is a trade tagged with its position in the normalized sequence.
type sequenced struct {
	seq   int
	trade domain.TradeRecord
}

type seqMatch struct {
	seq   int
	match ledger.SellMatch
}

type seqPosition struct {
	seq      int
	position domain.TokenPosition
}

// partitionResult is what one ledger run contributes to the merged result.
type partitionResult struct {
	matches     []seqMatch
	open        []seqPosition
	buysIgnored int
	unmatched   int
}

func (c *Calculator) calculate(ctx context.Context, trades []domain.TradeRecord) (*domain.PnLResult, error) {
	base := c.cfg.baseAssets()
	normalized, normStats := normalization.Normalize(trades)

	result := &domain.PnLResult{TradeCount: len(normalized)}
	result.Quality.DuplicatesDropped = normStats.DuplicatesDropped

	partitions, order := c.partition(normalized, base, &result.Quality)

	var parts []partitionResult
	if c.cfg.Parallel && len(order) > 1 {
		var err error
		parts, err = c.runParallel(ctx, partitions, order, base)
		if err != nil {
			return nil, err
		}
	} else {
		var all []sequenced
		for _, asset := range order {
			all = append(all, partitions[asset]...)
		}
		// Restore global order so one ledger sees the original sequence.
		sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
		parts = []partitionResult{runPartition(all, base, c.cfg.IncludePositions)}
	}

	c.merge(result, parts, normalized)
	return result, nil
}

// partition groups position-relevant trades by asset, keeping sequence order
// within each group, and counts the trades that never reach a ledger.
func (c *Calculator) partition(trades []domain.TradeRecord, base domain.AssetSet, q *domain.DataQuality) (map[string][]sequenced, []string) {
	groups := make(map[string][]sequenced)
	var order []string

	for i, t := range trades {
		if t.Kind == domain.TradeKindSwap {
			q.SwapsIgnored++
			continue
		}
		asset, ok := ledger.PositionAsset(t, base)
		if !ok {
			switch t.Kind {
			case domain.TradeKindBuy:
				q.BuysIgnored++
			case domain.TradeKindSell:
				q.SellsUnmatched++
			}
			continue
		}
		if missingValuation(t) {
			q.MissingValuations++
		}
		if _, seen := groups[asset]; !seen {
			order = append(order, asset)
		}
		groups[asset] = append(groups[asset], sequenced{seq: i, trade: t})
	}
	return groups, order
}

// missingValuation reports whether the side of t the ledger prices is unvalued.
func missingValuation(t domain.TradeRecord) bool {
	if t.Kind == domain.TradeKindBuy {
		return !t.InputValueUSD.IsSet()
	}
	return !t.OutputValueUSD.IsSet()
}

func (c *Calculator) runParallel(ctx context.Context, partitions map[string][]sequenced, order []string, base domain.AssetSet) ([]partitionResult, error) {
	parts := make([]partitionResult, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.workers())
	for i, asset := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = runPartition(partitions[asset], base, c.cfg.IncludePositions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// runPartition replays trades through a fresh ledger. Open positions are only
// materialized when withOpen is set.
func runPartition(trades []sequenced, base domain.AssetSet, withOpen bool) partitionResult {
	var out partitionResult
	l := ledger.New(base)
	firstBuy := make(map[string]int)

	for _, st := range trades {
		switch st.trade.Kind {
		case domain.TradeKindBuy:
			if !l.RecordBuy(st.trade) {
				out.buysIgnored++
				continue
			}
			asset := st.trade.OutputAsset
			if _, ok := firstBuy[asset]; !ok {
				firstBuy[asset] = st.seq
			}
		case domain.TradeKindSell:
			m, ok := l.ConsumeSell(st.trade)
			if !ok {
				out.unmatched++
				continue
			}
			out.matches = append(out.matches, seqMatch{seq: st.seq, match: m})
		}
	}

	if !withOpen {
		return out
	}
	for _, asset := range l.Assets() {
		if p, ok := positions.Open(asset, l.Lots(asset)); ok {
			out.open = append(out.open, seqPosition{seq: firstBuy[asset], position: p})
		}
	}
	return out
}

// merge folds partition results into result in global sequence order.
func (c *Calculator) merge(result *domain.PnLResult, parts []partitionResult, normalized []domain.TradeRecord) {
	var (
		matches []seqMatch
		open    []seqPosition
	)
	for _, p := range parts {
		matches = append(matches, p.matches...)
		open = append(open, p.open...)
		result.Quality.BuysIgnored += p.buysIgnored
		result.Quality.SellsUnmatched += p.unmatched
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })
	sort.Slice(open, func(i, j int) bool { return open[i].seq < open[j].seq })

	agg := metrics.NewAggregator(c.cfg.TrackBestTrade)
	var closed []domain.TokenPosition
	for _, sm := range matches {
		agg.Observe(sm.match)
		if sm.match.Partial() {
			result.Quality.SellsPartiallyMatched++
		}
		if c.cfg.IncludePositions {
			closed = append(closed, positions.Closed(sm.match))
		}
	}

	result.RealizedPnLUSD = agg.RealizedPnL()
	result.BestTrade = agg.BestTrade()
	result.Stats = agg.Stats()

	strategy := metrics.NewWinRateStrategy(c.cfg.IncludePositions, c.cfg.HeuristicWindow, c.cfg.HeuristicThreshold, c.cfg.baseAssets())
	result.WinRateMode = strategy.Mode()
	result.WinRate = strategy.WinRate(metrics.WinRateInput{Trades: normalized, Closed: closed})

	if c.cfg.IncludePositions {
		result.Positions = make([]domain.TokenPosition, 0, len(closed)+len(open))
		result.Positions = append(result.Positions, closed...)
		for _, op := range open {
			result.Positions = append(result.Positions, op.position)
		}
	}
}
