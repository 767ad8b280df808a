package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
)

func TestApplyTrendFilterBands(t *testing.T) {
	strong := ApplyTrendFilter(85, 100) // -15%
	assert.True(t, strong.Rejected)

	soft := ApplyTrendFilter(95, 100) // -5%
	assert.False(t, soft.Rejected)
	assert.InDelta(t, 0.7, soft.AllocMultiplier, 1e-9)

	up := ApplyTrendFilter(110, 100)
	assert.False(t, up.Rejected)
	assert.InDelta(t, 1.0, up.AllocMultiplier, 1e-9)
}

func TestVKellyVolatilityFactorClampedToOne(t *testing.T) {
	// atr_pct well below target vol -> factor would exceed 1, clamp to 1.
	assert.InDelta(t, 1.0, VKellyVolatilityFactor(0.5, 100), 1e-9)
	// atr_pct = 4% vs 2% target -> factor 0.5.
	assert.InDelta(t, 0.5, VKellyVolatilityFactor(4, 100), 1e-9)
}

func TestExecutionCostGateRejectsBelowFloor(t *testing.T) {
	cfg := config.Default()
	// expected_value 0.004; costs are FX 0.005 + courtage 0.0003 + spread
	// 0.003 + slippage 0.001 = 0.0093 -> net_edge -0.0053.
	result := ApplyExecutionCosts(cfg, 0.004, 50000, "OTHER", LiquiditySmallCap, VolatilityStable)
	assert.True(t, result.Rejected)
	assert.Less(t, result.NetEdge, 0.0)
}

func TestExecutionCostAcceptsAboveFloor(t *testing.T) {
	cfg := config.Default()
	result := ApplyExecutionCosts(cfg, 0.05, 50000, "SE", LiquidityLargeCap, VolatilityStable)
	assert.False(t, result.Rejected)
	assert.Greater(t, result.NetEdge, cfg.NetEdgeFloor)
}

func TestRegimeMultiplierCarveOuts(t *testing.T) {
	cfg := config.Default()
	assert.InDelta(t, 0.2, RegimeMultiplier(cfg, domain.RegimeCrisis, false, false), 1e-9)
	assert.InDelta(t, 1.0, RegimeMultiplier(cfg, domain.RegimeCrisis, true, false), 1e-9)
	assert.InDelta(t, 0.5, RegimeMultiplier(cfg, domain.RegimeCrisis, false, true), 1e-9)
	assert.InDelta(t, 1.0, RegimeMultiplier(cfg, domain.RegimeHealthy, false, false), 1e-9)
}

func TestSectorCapTrackerTruncatesNotRescales(t *testing.T) {
	tracker := NewSectorCapTracker(0.40)

	first, ok := tracker.Apply("TECH", 0.25)
	assert.True(t, ok)
	assert.InDelta(t, 0.25, first, 1e-9)

	second, ok := tracker.Apply("TECH", 0.25)
	assert.True(t, ok)
	assert.InDelta(t, 0.15, second, 1e-9) // truncated to remaining headroom

	third, ok := tracker.Apply("TECH", 0.10)
	assert.False(t, ok)
	assert.Equal(t, 0.0, third)
}

func TestApplyMinimumFloorRejectsTinyPositions(t *testing.T) {
	cfg := config.Default()
	result := ApplyMinimumFloor(cfg, 0.001) // 0.1% of 100,000 = 100 < 1500 floor
	assert.True(t, result.Rejected)

	ok := ApplyMinimumFloor(cfg, 0.05)
	assert.False(t, ok.Rejected)
}

func TestRunRegimeDownshiftMatchesWorkedExample(t *testing.T) {
	cfg := config.Default()
	cfg.PortfolioCurrencyAmount = 1_000_000 // keep the position above the min floor at 0.2x

	score := domain.PositionTradingScore{
		Ticker:        "XYZ",
		RawAllocation: 0.028,
		WinRate63d:    0.65,
		BestPattern: domain.EvaluatedPattern{
			ExpectedValue:   0.05,
			RiskRewardRatio: 3.0,
			Situation:       domain.Situation{ID: "double_bottom_after_decline"},
			Tier:            domain.TierCore,
			StatsByHorizon: map[int]domain.OutcomeStatistics{
				63: {AvgLoss: -0.04},
			},
			Robust: domain.RobustStatistics{RobustScore: 0.81},
		},
	}
	inst := InstrumentContext{
		Sector: "TECH", Geography: "SE", Liquidity: LiquidityLargeCap,
		Close: 100, EMA200: 90, ATR: 2, ATRPct: 0.02, ATRPctRollingMean: 0.02,
	}

	healthy, rej := Run(cfg, score, inst, domain.RegimeHealthy, nil)
	assert.Nil(t, rej)
	assert.InDelta(t, 0.028, healthy.PositionPct, 1e-9)
	assert.InDelta(t, 0.06, healthy.StopLossPct, 1e-9) // 1.5 * |avg_loss| = 1.5 * 0.04
	assert.InDelta(t, 0.81, healthy.RobustScore, 1e-9)

	crisis, rej := Run(cfg, score, inst, domain.RegimeCrisis, nil)
	if assert.Nil(t, rej) {
		assert.InDelta(t, 0.0056, crisis.PositionPct, 1e-9)
	}
}
