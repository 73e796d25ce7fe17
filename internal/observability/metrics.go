// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-pnl-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Calculation metrics
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec
	TradesProcessed     prometheus.Counter
	DuplicatesDropped   prometheus.Counter
	SellsUnmatched      prometheus.Counter
	MissingValuations   prometheus.Counter
	IncompletePositions prometheus.Counter

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage metrics
	SnapshotsStored prometheus.Counter
	TradesStored    prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on its own registry, so
// several instances can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_pnl_lab"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CalculationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calculations_total",
			Help:      "Total number of PnL calculations by win rate mode",
		}, []string{"mode"}),
		CalculationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calculation_duration_seconds",
			Help:      "PnL calculation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"mode"}),
		TradesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_processed_total",
			Help:      "Total number of deduplicated trades processed",
		}),
		DuplicatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "duplicates_dropped_total",
			Help:      "Total number of duplicate trade signatures dropped",
		}),
		SellsUnmatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "sells_unmatched_total",
			Help:      "Total number of sells without buy history",
		}),
		MissingValuations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "missing_valuations_total",
			Help:      "Total number of trades without a USD valuation",
		}),
		IncompletePositions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "incomplete_positions_total",
			Help:      "Total number of positions flagged incomplete",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		SnapshotsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "snapshots_stored_total",
			Help:      "Total number of PnL snapshots persisted",
		}),
		TradesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "trades_stored_total",
			Help:      "Total number of trade records persisted",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordCalculation records one finished calculation.
func (m *Metrics) RecordCalculation(r *domain.PnLResult, d time.Duration) {
	m.CalculationsTotal.WithLabelValues(r.WinRateMode).Inc()
	m.CalculationDuration.WithLabelValues(r.WinRateMode).Observe(d.Seconds())
	m.TradesProcessed.Add(float64(r.TradeCount))
	m.DuplicatesDropped.Add(float64(r.Quality.DuplicatesDropped))
	m.SellsUnmatched.Add(float64(r.Quality.SellsUnmatched))
	m.MissingValuations.Add(float64(r.Quality.MissingValuations))
	m.IncompletePositions.Add(float64(r.IncompleteCount()))
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
