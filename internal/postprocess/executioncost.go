package postprocess

import (
	"strings"

	"github.com/aristath/setuptrader/internal/config"
)

// LiquidityTier is a coarse market-cap/liquidity bucket used only to
// pick a spread assumption (spec §4.7 step 3).
type LiquidityTier string

const (
	LiquidityLargeCap LiquidityTier = "LARGE_CAP"
	LiquidityMidCap   LiquidityTier = "MID_CAP"
	LiquiditySmallCap LiquidityTier = "SMALL_CAP"
)

var spreadByLiquidity = map[LiquidityTier]float64{
	LiquidityLargeCap: 0.0005,
	LiquidityMidCap:   0.0015,
	LiquiditySmallCap: 0.0030,
}

// VolatilityRegime classifies how a bar's realized volatility compares to
// its own recent trend, driving the slippage multiplier. Spec §4.7 step 3
// names the four categories and their multipliers but leaves how a bar is
// assigned to one unspecified; this package derives it from the ratio of
// current ATR% to its 20-bar rolling mean, which the pipeline computes
// per instrument.
type VolatilityRegime string

const (
	VolatilityStable      VolatilityRegime = "STABLE"
	VolatilityExpanding   VolatilityRegime = "EXPANDING"
	VolatilityExplosive   VolatilityRegime = "EXPLOSIVE"
	VolatilityContracting VolatilityRegime = "CONTRACTING"
)

var slippageMultiplier = map[VolatilityRegime]float64{
	VolatilityStable:      1,
	VolatilityExpanding:   2,
	VolatilityExplosive:   4,
	VolatilityContracting: 0.5,
}

// ClassifyVolatilityRegime buckets the current ATR% against its recent
// average.
func ClassifyVolatilityRegime(atrPct, atrPctRollingMean float64) VolatilityRegime {
	if atrPctRollingMean <= 0 {
		return VolatilityStable
	}
	ratio := atrPct / atrPctRollingMean
	switch {
	case ratio > 1.5:
		return VolatilityExplosive
	case ratio > 1.1:
		return VolatilityExpanding
	case ratio < 0.7:
		return VolatilityContracting
	default:
		return VolatilityStable
	}
}

// fxCostByGeography resolves geography (e.g. "SE", "NORDIC", "OTHER", or
// a raw exchange suffix like ".ST") to its FX cost, falling back to
// "OTHER" when the geography is not recognized.
func fxCostByGeography(cfg config.Config, geography string) float64 {
	key := strings.ToUpper(geography)
	if v, ok := cfg.FXCostByGeography[key]; ok {
		return v
	}
	if strings.Contains(key, ".ST") || key == "SWEDEN" {
		return cfg.FXCostByGeography["SE"]
	}
	return cfg.FXCostByGeography["OTHER"]
}

// courtage picks the smallest tier whose notional ceiling covers the
// trade, then doubles the fee for the round trip (spec §4.7 step 3).
func courtage(cfg config.Config, notional float64) float64 {
	order := []string{"MINI", "SMALL", "MEDIUM"}
	for _, name := range order {
		band, ok := cfg.CourtageTiers[name]
		if !ok {
			continue
		}
		if notional <= band.NotionalCeiling {
			fee := notional * band.Rate
			if fee < band.MinFee {
				fee = band.MinFee
			}
			return 2 * fee / notional // round trip, expressed as % of notional
		}
	}
	// Notional exceeds every configured band: use the largest band's rate.
	if band, ok := cfg.CourtageTiers["MEDIUM"]; ok {
		fee := notional * band.Rate
		if fee < band.MinFee {
			fee = band.MinFee
		}
		return 2 * fee / notional
	}
	return 0
}

// ExecutionCostResult is the outcome of the round-trip cost model.
type ExecutionCostResult struct {
	FXCost       float64
	CourtagePct  float64
	SpreadPct    float64
	SlippagePct  float64
	TotalCostPct float64
	NetEdge      float64
	Rejected     bool
}

// ApplyExecutionCosts sums FX + courtage + spread + slippage into a
// round-trip cost percentage and rejects when net_edge falls below the
// configured floor (spec §4.7 step 3).
func ApplyExecutionCosts(cfg config.Config, expectedValue, notional float64, geography string, liquidity LiquidityTier, volRegime VolatilityRegime) ExecutionCostResult {
	fx := fxCostByGeography(cfg, geography)
	court := courtage(cfg, notional)
	spread := spreadByLiquidity[liquidity]
	slippage := 0.001 * slippageMultiplier[volRegime]

	total := fx + court + spread + slippage
	netEdge := expectedValue - total

	return ExecutionCostResult{
		FXCost:       fx,
		CourtagePct:  court,
		SpreadPct:    spread,
		SlippagePct:  slippage,
		TotalCostPct: total,
		NetEdge:      netEdge,
		Rejected:     netEdge < cfg.NetEdgeFloor,
	}
}
