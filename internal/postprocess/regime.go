package postprocess

import (
	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
)

// DeriveRegime classifies the market-wide risk posture from breadth and
// macro signals (spec §4.7 step 4). Breadth below 30% together with a
// yield curve below -50bps or a credit spread above 500bps signals CRISIS;
// otherwise breadth below 45%, a negative yield curve, or a credit spread
// above 300bps signals STRESSED; breadth below 60% is CAUTIOUS; otherwise
// HEALTHY. The exact breakpoints are not fixed
// by spec.md ("breadth + macro signals" is named but not thresholded) and
// are recorded here as an interpretation decision, grounded on the
// retired system's breadth/macro regime detector referenced in
// SPEC_FULL.md.
func DeriveRegime(in domain.RegimeInputs) domain.Regime {
	macroStressed := in.YieldCurveBps < 0 || in.CreditSpreadBps > 300
	macroCrisis := in.YieldCurveBps < -50 || in.CreditSpreadBps > 500

	switch {
	case in.BreadthPct < 0.30 && macroCrisis:
		return domain.RegimeCrisis
	case in.BreadthPct < 0.45 || macroStressed:
		return domain.RegimeStressed
	case in.BreadthPct < 0.60:
		return domain.RegimeCautious
	default:
		return domain.RegimeHealthy
	}
}

// RegimeMultiplier resolves the allocation multiplier for the given regime,
// applying the all-weather and defensive-sector CRISIS carve-outs (spec
// §4.7 step 4): all-weather instruments retain full allocation, defensive
// sectors are halved rather than cut to the base CRISIS multiplier.
func RegimeMultiplier(cfg config.Config, regime domain.Regime, allWeather, defensive bool) float64 {
	if regime == domain.RegimeCrisis {
		if allWeather {
			return 1.0
		}
		if defensive {
			return 0.5
		}
	}
	switch regime {
	case domain.RegimeHealthy:
		return cfg.RegimeMultipliers.Healthy
	case domain.RegimeCautious:
		return cfg.RegimeMultipliers.Cautious
	case domain.RegimeStressed:
		return cfg.RegimeMultipliers.Stressed
	case domain.RegimeCrisis:
		return cfg.RegimeMultipliers.Crisis
	default:
		return cfg.RegimeMultipliers.Healthy
	}
}
