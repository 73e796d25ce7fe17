// Package config loads runtime settings from a config file and PNL_LAB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solana-pnl-lab/internal/domain"
	"solana-pnl-lab/internal/pnl"
)

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// EnvPrefix prefixes every environment override, e.g. PNL_LAB_STORAGE.
const EnvPrefix = "PNL_LAB"

type Config struct {
	BaseAssets            []string      `mapstructure:"base_assets"`
	IncludePositions      bool          `mapstructure:"include_positions"`
	TrackBestTrade        bool          `mapstructure:"track_best_trade"`
	HeuristicWindow       time.Duration `mapstructure:"heuristic_window"`
	HeuristicThresholdPct float64       `mapstructure:"heuristic_threshold_pct"`
	Parallel              bool          `mapstructure:"parallel"`
	Workers               int           `mapstructure:"workers"`

	Storage       string `mapstructure:"storage"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`

	ListenAddr       string        `mapstructure:"listen_addr"`
	MetricsNamespace string        `mapstructure:"metrics_namespace"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`

	DebugLogging   bool   `mapstructure:"debug_logging"`
	LogFile        string `mapstructure:"log_file"`
	ConnectRetries int    `mapstructure:"connect_retries"`
}

const (
	DefaultHeuristicWindow       = 30 * 24 * time.Hour
	DefaultHeuristicThresholdPct = 1.0
	DefaultListenAddr            = ":8080"
	DefaultMetricsNamespace      = "solana_pnl_lab"
	DefaultCacheTTL              = 30 * time.Second
	DefaultRateLimitRPS          = 20.0
	DefaultRateLimitBurst        = 40
	DefaultConnectRetries        = 5
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"base_assets":             []string{},
		"include_positions":       false,
		"track_best_trade":        true,
		"heuristic_window":        DefaultHeuristicWindow,
		"heuristic_threshold_pct": DefaultHeuristicThresholdPct,
		"parallel":                false,
		"workers":                 0,
		"storage":                 StorageMemory,
		"postgres_dsn":            "",
		"sqlite_path":             "",
		"clickhouse_dsn":          "",
		"listen_addr":             DefaultListenAddr,
		"metrics_namespace":       DefaultMetricsNamespace,
		"cache_ttl":               DefaultCacheTTL,
		"rate_limit_rps":          DefaultRateLimitRPS,
		"rate_limit_burst":        DefaultRateLimitBurst,
		"tracing_enabled":         false,
		"debug_logging":           false,
		"log_file":                "",
		"connect_retries":         DefaultConnectRetries,
	}
}

// Load reads path (YAML, JSON or TOML by extension) when it is non-empty,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.BaseAssets = cleanList(cfg.BaseAssets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and backend requirements.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for postgres storage", ErrInvalidConfig)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for sqlite storage", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}

	if c.HeuristicWindow <= 0 {
		return fmt.Errorf("%w: heuristic_window must be positive", ErrInvalidConfig)
	}
	if c.HeuristicThresholdPct < 0 {
		return fmt.Errorf("%w: heuristic_threshold_pct must not be negative", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: invalid workers count", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidConfig)
	}
	if c.ConnectRetries < 0 {
		return fmt.Errorf("%w: invalid connect_retries", ErrInvalidConfig)
	}
	return nil
}

// Engine converts the calculation settings into a pnl.Config.
func (c *Config) Engine() pnl.Config {
	cfg := pnl.DefaultConfig()
	cfg.IncludePositions = c.IncludePositions
	cfg.TrackBestTrade = c.TrackBestTrade
	cfg.HeuristicWindow = c.HeuristicWindow
	cfg.HeuristicThreshold = c.HeuristicThresholdPct / 100
	cfg.Parallel = c.Parallel
	cfg.Workers = c.Workers
	if len(c.BaseAssets) > 0 {
		cfg.BaseAssets = domain.NewAssetSet(c.BaseAssets...)
	}
	return cfg
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		// Env values arrive as one comma separated string.
		for _, part := range strings.Split(item, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
