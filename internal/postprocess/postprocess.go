// Package postprocess applies the fixed six-step risk/cost/regime
// adjustment chain to a screened PositionTradingScore, producing either a
// final Setup or a Rejection (spec §4.7): trend filter, V-Kelly sizing,
// execution costs, regime multiplier, sector cap, minimum-position floor.
package postprocess

import (
	"math"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
)

// InstrumentContext carries the per-instrument facts the post-processor
// needs beyond the PositionTradingScore itself. It is deliberately
// decoupled from the universe package's declarative record so this
// package has no dependency on how instruments are loaded.
type InstrumentContext struct {
	Sector     string
	Geography  string
	Liquidity  LiquidityTier
	AllWeather bool
	Defensive  bool

	Close             float64
	EMA200            float64
	ATR               float64
	ATRPct            float64
	ATRPctRollingMean float64
}

// Run applies all six post-processing steps in the spec's fixed order to
// one screened candidate, threading a shared SectorCapTracker across the
// full ranking run.
func Run(cfg config.Config, score domain.PositionTradingScore, inst InstrumentContext, regime domain.Regime, sectorCap *SectorCapTracker) (domain.Setup, *domain.Rejection) {
	ticker := score.Ticker
	best := score.BestPattern

	trend := ApplyTrendFilter(inst.Close, inst.EMA200)
	if trend.Rejected {
		return domain.Setup{}, &domain.Rejection{
			Ticker: ticker, Stage: "postprocess.trend", Reason: "trend_filter",
			Detail: "close below EMA200 by more than 10%",
		}
	}
	alloc := score.RawAllocation * trend.AllocMultiplier

	volFactor := VKellyVolatilityFactor(inst.ATR, inst.Close)
	alloc *= volFactor

	notional := alloc * cfg.PortfolioCurrencyAmount
	volRegime := ClassifyVolatilityRegime(inst.ATRPct, inst.ATRPctRollingMean)
	cost := ApplyExecutionCosts(cfg, best.ExpectedValue, notional, inst.Geography, inst.Liquidity, volRegime)
	if cost.Rejected {
		return domain.Setup{}, &domain.Rejection{
			Ticker: ticker, Stage: "postprocess.cost", Reason: "net_edge_below_floor",
			Detail: "net_edge below configured floor after execution costs",
		}
	}

	multiplier := RegimeMultiplier(cfg, regime, inst.AllWeather, inst.Defensive)
	alloc *= multiplier

	if sectorCap != nil {
		capped, hasHeadroom := sectorCap.Apply(inst.Sector, alloc)
		if !hasHeadroom {
			return domain.Setup{}, &domain.Rejection{
				Ticker: ticker, Stage: "postprocess.sector_cap", Reason: "sector_cap_exhausted",
				Detail: "sector " + inst.Sector + " already at cap",
			}
		}
		alloc = capped
	}

	floor := ApplyMinimumFloor(cfg, alloc)
	if floor.Rejected {
		return domain.Setup{}, &domain.Rejection{
			Ticker: ticker, Stage: "postprocess.min_floor", Reason: "below_min_position",
			Detail: "position currency amount below minimum tradable size",
		}
	}

	horizonEdges := make(map[int]float64, len(score.Edges))
	for h, v := range score.Edges {
		horizonEdges[h] = v
	}

	avgLoss := best.StatsByHorizon[cfg.EvaluationHorizon].AvgLoss
	stopLossPct := 1.5 * math.Abs(avgLoss)

	var notes []string
	if best.RRRSentinel {
		notes = append(notes, "rrr_sentinel")
	}

	return domain.Setup{
		Ticker:           ticker,
		PatternName:      best.Situation.ID,
		Tier:             best.Tier,
		Score:            score.Score,
		RobustScore:      best.Robust.RobustScore,
		HorizonEdges:     horizonEdges,
		WinRateWithCI:    [3]float64{score.WinRate63d, score.WinRateCI[0], score.WinRateCI[1]},
		ExpectedValue:    cost.NetEdge,
		RiskReward:       best.RiskRewardRatio,
		StopLossPct:      stopLossPct,
		PositionPct:      alloc,
		PositionCurrency: floor.PositionCurrency,
		Notes:            notes,
	}, nil
}
