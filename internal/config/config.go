// Package config loads the engine's single immutable configuration value.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// SampleSizeThresholds are the minimum fire counts required for each tier.
type SampleSizeThresholds struct {
	Core      int `toml:"core"`
	Primary   int `toml:"primary"`
	Secondary int `toml:"secondary"`
}

// CourtageBand is one tier of the per-trade brokerage fee schedule.
type CourtageBand struct {
	NotionalCeiling float64 `toml:"notional_ceiling"`
	MinFee          float64 `toml:"min_fee"`
	Rate            float64 `toml:"rate"`
}

// RegimeMultipliers maps a market regime label to its allocation multiplier.
type RegimeMultipliers struct {
	Healthy   float64 `toml:"healthy"`
	Cautious  float64 `toml:"cautious"`
	Stressed  float64 `toml:"stressed"`
	Crisis    float64 `toml:"crisis"`
}

// Config is the engine's single recognized configuration surface (spec §6).
// It is constructed once, never mutated, and threaded explicitly through the
// orchestrator and every component that needs it.
type Config struct {
	// Horizons, in bars, over which forward outcomes are measured.
	Horizons []int `toml:"horizons"`
	// EvaluationHorizon selects which horizon's stats drive tiering/sizing.
	EvaluationHorizon int `toml:"evaluation_horizon"`

	MinDeclinePct    float64              `toml:"min_decline_pct"`
	MinSampleSizes   SampleSizeThresholds `toml:"min_sample_sizes"`
	EVFloor          float64              `toml:"ev_floor"`
	RRRFloor         float64              `toml:"rrr_floor"`
	NetEdgeFloor     float64              `toml:"net_edge_floor"`

	PortfolioCurrencyAmount float64 `toml:"portfolio_currency_amount"`
	MinPositionCurrency     float64 `toml:"min_position_currency"`

	RegimeMultipliers  RegimeMultipliers         `toml:"regime_multipliers"`
	FXCostByGeography  map[string]float64        `toml:"fx_cost_by_geography"`
	CourtageTiers      map[string]CourtageBand   `toml:"courtage_tiers"`

	TopN        int `toml:"top_n"`
	WorkerCount int `toml:"worker_count"` // 0 means "default to available cores"

	InstrumentTimeoutSeconds int `toml:"instrument_timeout_seconds"`

	// RandomSeed drives the permutation test and any other randomized
	// operation; per-worker seeds derive from hash(RandomSeed, ticker).
	RandomSeed int64 `toml:"random_seed"`

	SectorCapPct float64 `toml:"sector_cap_pct"`

	UniversePath       string `toml:"universe_path"`
	IndicatorCachePath string `toml:"indicator_cache_path"`
	SnapshotDir        string `toml:"snapshot_dir"`

	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`
}

// Default returns the configuration spec §6 and §4 describe as the baseline.
func Default() Config {
	return Config{
		Horizons:          []int{21, 42, 63},
		EvaluationHorizon: 63,
		MinDeclinePct:     0.10,
		MinSampleSizes: SampleSizeThresholds{
			Core:      150,
			Primary:   75,
			Secondary: 30,
		},
		EVFloor:      0.0,
		RRRFloor:     3.0,
		NetEdgeFloor: 0.003,

		PortfolioCurrencyAmount: 100000,
		MinPositionCurrency:     1500,

		RegimeMultipliers: RegimeMultipliers{
			Healthy:  1.0,
			Cautious: 0.7,
			Stressed: 0.4,
			Crisis:   0.2,
		},
		FXCostByGeography: map[string]float64{
			"SE":     0.0,
			"NORDIC": 0.0025,
			"OTHER":  0.005,
		},
		CourtageTiers: map[string]CourtageBand{
			"MINI":   {NotionalCeiling: 100000, MinFee: 1, Rate: 0.00015},
			"SMALL":  {NotionalCeiling: 250000, MinFee: 7, Rate: 0.00035},
			"MEDIUM": {NotionalCeiling: 1000000, MinFee: 15, Rate: 0.00056},
		},

		TopN:                     5,
		WorkerCount:              0,
		InstrumentTimeoutSeconds: 30,
		RandomSeed:               1,
		SectorCapPct:             0.40,

		UniversePath:       "universe.yaml",
		IndicatorCachePath: "data/indicator_cache.db",
		SnapshotDir:        "data/runs",

		LogLevel:  "info",
		LogPretty: false,
	}
}

// Load reads a TOML configuration file over the defaults, then applies any
// ".env" overrides (for paths/secrets that should not live in version
// control), mirroring the teacher's env-defaulting Load() idiom.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load() // optional .env; absence is not an error

	if v := os.Getenv("SETUPTRADER_UNIVERSE_PATH"); v != "" {
		cfg.UniversePath = v
	}
	if v := os.Getenv("SETUPTRADER_SNAPSHOT_DIR"); v != "" {
		cfg.SnapshotDir = v
	}
	if v := os.Getenv("SETUPTRADER_INDICATOR_CACHE_PATH"); v != "" {
		cfg.IndicatorCachePath = v
	}
	if v := os.Getenv("SETUPTRADER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the pipeline meaningless.
// A failure here is a fatal ConfigError (spec §7): it must surface before
// any instrument work starts.
func (c Config) Validate() error {
	if len(c.Horizons) == 0 {
		return fmt.Errorf("config: horizons must not be empty")
	}
	found := false
	for _, h := range c.Horizons {
		if h <= 0 {
			return fmt.Errorf("config: horizon %d must be positive", h)
		}
		if h == c.EvaluationHorizon {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("config: evaluation_horizon %d not present in horizons %v", c.EvaluationHorizon, c.Horizons)
	}
	if c.MinSampleSizes.Core <= c.MinSampleSizes.Primary || c.MinSampleSizes.Primary <= c.MinSampleSizes.Secondary {
		return fmt.Errorf("config: min_sample_sizes must be strictly decreasing core>primary>secondary")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("config: top_n must be positive")
	}
	if c.PortfolioCurrencyAmount <= 0 {
		return fmt.Errorf("config: portfolio_currency_amount must be positive")
	}
	if c.SectorCapPct <= 0 || c.SectorCapPct > 1 {
		return fmt.Errorf("config: sector_cap_pct must be in (0,1]")
	}
	if c.UniversePath == "" {
		return fmt.Errorf("config: universe_path must not be empty")
	}
	return nil
}
