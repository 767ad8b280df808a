// Package universe loads the declarative instrument list the pipeline
// screens each run (spec §5 "Instrument universe"): a flat YAML file of
// tickers with the sector/geography/liquidity/earnings metadata the
// screener and post-processor consult.
package universe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/setuptrader/internal/postprocess"
)

// EarningsRisk mirrors the screener's earnings-risk classification so the
// universe file can carry it without this package depending on screener.
type EarningsRisk string

const (
	EarningsRiskNone    EarningsRisk = ""
	EarningsRiskWarning EarningsRisk = "WARNING"
	EarningsRiskHigh    EarningsRisk = "HIGH"
)

// Instrument is one entry in the declarative universe file.
type Instrument struct {
	Ticker       string                    `yaml:"ticker"`
	Name         string                    `yaml:"name"`
	Sector       string                    `yaml:"sector"`
	Geography    string                    `yaml:"geography"`
	IsAllWeather bool                      `yaml:"is_all_weather"`
	Defensive    bool                      `yaml:"defensive"`
	Liquidity    postprocess.LiquidityTier `yaml:"liquidity_tier"`
	EarningsRisk EarningsRisk              `yaml:"earnings_risk"`
}

// Universe is the loaded, ordered instrument list.
type Universe struct {
	Instruments []Instrument `yaml:"instruments"`
}

// Load reads and validates a universe YAML file.
func Load(path string) (Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Universe{}, fmt.Errorf("universe: read %s: %w", path, err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return Universe{}, fmt.Errorf("universe: parse %s: %w", path, err)
	}

	seen := make(map[string]bool, len(u.Instruments))
	for i, inst := range u.Instruments {
		if inst.Ticker == "" {
			return Universe{}, fmt.Errorf("universe: entry %d missing ticker", i)
		}
		if seen[inst.Ticker] {
			return Universe{}, fmt.Errorf("universe: duplicate ticker %q", inst.Ticker)
		}
		seen[inst.Ticker] = true
	}

	return u, nil
}

// Tickers returns the flat ticker list in file order.
func (u Universe) Tickers() []string {
	out := make([]string, len(u.Instruments))
	for i, inst := range u.Instruments {
		out[i] = inst.Ticker
	}
	return out
}

// Find looks up one instrument by ticker.
func (u Universe) Find(ticker string) (Instrument, bool) {
	for _, inst := range u.Instruments {
		if inst.Ticker == ticker {
			return inst, true
		}
	}
	return Instrument{}, false
}
