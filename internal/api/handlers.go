package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/idhash"
	"solana-pnl-lab/internal/ingestion"
	"solana-pnl-lab/internal/pnl"
	"solana-pnl-lab/internal/storage"
)

// CalcOptions overrides the server's calculation defaults per request.
type CalcOptions struct {
	IncludePositions *bool `json:"include_positions,omitempty"`
	TrackBestTrade   *bool `json:"track_best_trade,omitempty"`
	Parallel         *bool `json:"parallel,omitempty"`
}

// CalculateRequest is the body of POST /api/v1/pnl.
type CalculateRequest struct {
	Trades  []ingestion.WireTrade `json:"trades"`
	Options CalcOptions           `json:"options"`
}

// WalletPnLResponse is the body of GET /api/v1/wallets/{wallet}/pnl.
type WalletPnLResponse struct {
	Wallet     string            `json:"wallet"`
	SnapshotID string            `json:"snapshot_id,omitempty"`
	Cached     bool              `json:"cached"`
	Result     *domain.PnLResult `json:"result"`
}

// SnapshotResponse is the body of GET /api/v1/wallets/{wallet}/snapshots/latest.
type SnapshotResponse struct {
	Snapshot  *domain.PnLSnapshot    `json:"snapshot"`
	Positions []domain.TokenPosition `json:"positions,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) config(o CalcOptions) pnl.Config {
	cfg := s.calc.Config()
	if o.IncludePositions != nil {
		cfg.IncludePositions = *o.IncludePositions
	}
	if o.TrackBestTrade != nil {
		cfg.TrackBestTrade = *o.TrackBestTrade
	}
	if o.Parallel != nil {
		cfg.Parallel = *o.Parallel
	}
	return cfg
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req CalculateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	trades := make([]domain.TradeRecord, 0, len(req.Trades))
	for i, wt := range req.Trades {
		t, err := wt.Record()
		if err == nil {
			err = ingestion.ValidateTrade(t, false)
		}
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("trade %d: %v", i, err))
			return
		}
		trades = append(trades, t)
	}

	result, err := s.calc.WithConfig(s.config(req.Options)).Calculate(r.Context(), trades)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWalletPnL(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["wallet"]

	opts, err := queryOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg := s.config(opts)

	// The key is taken before the store read; an ingest in between bumps the
	// version and orphans whatever this request caches.
	key := s.cacheKey(wallet, cfg.IncludePositions, cfg.TrackBestTrade)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			resp := *cached.(*WalletPnLResponse)
			resp.Cached = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	rows, err := s.trades.GetByWallet(r.Context(), wallet)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	trades := make([]domain.TradeRecord, len(rows))
	for i, row := range rows {
		trades[i] = *row
	}

	result, err := s.calc.WithConfig(cfg).Calculate(r.Context(), trades)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := &WalletPnLResponse{Wallet: wallet, Result: result}
	if len(rows) > 0 {
		// Rows come back ordered, so the last one is the newest trade.
		resp.SnapshotID = s.persist(r, wallet, rows[len(rows)-1].Signature, cfg, result)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// persist stores the snapshot and its positions. Storage failures are logged,
// not returned; the calculation itself succeeded.
func (s *Server) persist(r *http.Request, wallet, lastSignature string, cfg pnl.Config, result *domain.PnLResult) string {
	if s.snapshots == nil {
		return ""
	}

	variant := fmt.Sprintf("%s/best=%t", result.WinRateMode, cfg.TrackBestTrade)
	id := idhash.ComputeSnapshotID(wallet, lastSignature, result.TradeCount, variant)
	snap := domain.NewSnapshot(id, wallet, s.now().UnixMilli(), lastSignature, result)

	ctx := r.Context()
	err := s.snapshots.Insert(ctx, snap)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.SnapshotsStored.Inc()
		}
	case errors.Is(err, storage.ErrDuplicateKey):
		// Stored by an earlier request, whose positions write may have failed.
	default:
		s.logger.Warn("store snapshot failed", zap.String("wallet", wallet), zap.Error(err))
		return ""
	}

	if s.positions != nil && len(result.Positions) > 0 {
		err := s.positions.InsertBulk(ctx, id, result.Positions)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Warn("store positions failed", zap.String("snapshot_id", id), zap.Error(err))
		}
	}
	return id
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["wallet"]

	format := ingestion.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			writeError(w, r, http.StatusUnsupportedMediaType, "invalid content type")
			return
		}
		switch mediaType {
		case "application/json":
		case "text/csv":
			format = ingestion.FormatCSV
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = ingestion.FormatYAML
		default:
			writeError(w, r, http.StatusUnsupportedMediaType, "unsupported content type "+mediaType)
			return
		}
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	trades, err := ingestion.Decode(bytes.NewReader(data), format)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.ingest.Ingest(r.Context(), wallet, trades)
	// A failed batch may still have stored a prefix.
	if stats.Stored > 0 {
		s.invalidate(wallet)
		if s.metrics != nil {
			s.metrics.TradesStored.Add(float64(stats.Stored))
		}
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// readBody reads the whole request body. A body over the size cap is
// rejected with 413 instead of being cut short.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err == nil {
		return data, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return nil, false
	}
	writeError(w, r, http.StatusBadRequest, "read request body: "+err.Error())
	return nil, false
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, r, http.StatusNotImplemented, "snapshot storage is not configured")
		return
	}
	wallet := mux.Vars(r)["wallet"]

	snap, err := s.snapshots.GetLatestByWallet(r.Context(), wallet)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := SnapshotResponse{Snapshot: snap}
	if s.positions != nil {
		resp.Positions, err = s.positions.GetBySnapshot(r.Context(), snap.SnapshotID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryOptions reads include_positions, track_best_trade and parallel.
func queryOptions(r *http.Request) (CalcOptions, error) {
	var opts CalcOptions
	q := r.URL.Query()
	for name, dst := range map[string]**bool{
		"include_positions": &opts.IncludePositions,
		"track_best_trade":  &opts.TrackBestTrade,
		"parallel":          &opts.Parallel,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: %s=%q", errBadRequest, name, raw)
		}
		*dst = &v
	}
	return opts, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, err.Error())
}
