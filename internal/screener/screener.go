// Package screener implements the per-instrument InstrumentScreener: the
// context gate, best-pattern selection across evaluated patterns, and the
// composite PositionTradingScore with its initial (pre-cost) allocation.
package screener

import (
	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/contextfilter"
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/evaluator"
	"github.com/aristath/setuptrader/internal/marketdata"
	"github.com/aristath/setuptrader/internal/patterns"
)

// EarningsRisk classifies the earnings-event risk carried on the
// instrument's universe entry; it is consumed only as a multiplicative
// score penalty (spec §4.6).
type EarningsRisk string

const (
	EarningsRiskNone    EarningsRisk = ""
	EarningsRiskWarning EarningsRisk = "WARNING"
	EarningsRiskHigh    EarningsRisk = "HIGH"
)

var tierBonus = map[domain.Tier]float64{
	domain.TierCore:      10,
	domain.TierPrimary:   7,
	domain.TierSecondary: 3,
}

// Screen runs the full per-instrument screening pipeline: context gate,
// detection, evaluation, best-pattern selection, scoring, and initial
// allocation sizing.
func Screen(md *marketdata.MarketData, registry patterns.Registry, cfg config.Config, masterSeed int64, earningsRisk EarningsRisk) (domain.PositionTradingScore, *domain.Rejection) {
	ticker := md.Ticker()
	closes := md.Closes()
	high90 := md.RollingHigh(90)

	ctx := contextfilter.Evaluate(closes, high90, cfg.MinDeclinePct)
	if !ctx.Valid {
		return domain.PositionTradingScore{}, &domain.Rejection{
			Ticker: ticker, Stage: "context", Reason: "context_invalid",
			Detail: "decline_from_high above threshold",
		}
	}

	situations := registry.RunAll(md)

	var eligible []domain.EvaluatedPattern
	for _, situation := range situations {
		ep, ok := evaluator.Evaluate(closes, situation, cfg, masterSeed, ticker)
		if !ok {
			continue
		}
		if ep.Situation.Metadata.Priority != domain.PriorityPrimary {
			continue // SECONDARY patterns never drive a selection (spec §4.2)
		}
		eligible = append(eligible, ep)
	}

	best, found := bestPattern(eligible)
	if !found {
		return domain.PositionTradingScore{}, &domain.Rejection{
			Ticker: ticker, Stage: "screener", Reason: "no_eligible_pattern",
			Detail: "no PRIMARY pattern reached CORE/PRIMARY/SECONDARY tier",
		}
	}

	evalStats := best.StatsByHorizon[cfg.EvaluationHorizon]
	score := compositeScore(best, ctx.Valid, earningsRisk)
	rawAllocation := baseAllocation(evalStats.WinRate)

	edges := make(map[int]float64, len(best.StatsByHorizon))
	for h, s := range best.StatsByHorizon {
		edges[h] = s.Mean
	}

	return domain.PositionTradingScore{
		Ticker:          ticker,
		BestPattern:     best,
		ContextValid:    ctx.Valid,
		DeclineFromHigh: ctx.DeclineFromHigh,
		Score:           score,
		Edges:           edges,
		WinRate63d:      evalStats.WinRate,
		WinRateCI:       [2]float64{evalStats.WinRateCILower, evalStats.WinRateCIUpper},
		Robust:          best.Robust,
		SampleSize:      evalStats.N,
		RawAllocation:   rawAllocation,
	}, nil
}

// bestPattern prefers the highest tier with at least one member, and
// within a tier the pattern with the highest expected value (spec §4.6).
func bestPattern(candidates []domain.EvaluatedPattern) (domain.EvaluatedPattern, bool) {
	var best domain.EvaluatedPattern
	found := false
	for _, ep := range candidates {
		if !found {
			best, found = ep, true
			continue
		}
		if ep.Tier.Rank() > best.Tier.Rank() {
			best = ep
			continue
		}
		if ep.Tier.Rank() == best.Tier.Rank() && ep.ExpectedValue > best.ExpectedValue {
			best = ep
		}
	}
	return best, found
}

func compositeScore(ep domain.EvaluatedPattern, contextValid bool, earningsRisk EarningsRisk) float64 {
	base := 0.50 * ep.Robust.RobustScore
	if contextValid {
		base += 30
	}
	base += tierBonus[ep.Tier]
	volumeConfirmed := ep.Situation.Metadata.VolumeConfirmed
	if volumeConfirmed {
		base += 3
	}

	switch earningsRisk {
	case EarningsRiskHigh:
		base *= 0.5
	case EarningsRiskWarning:
		base *= 0.8
	}
	if !volumeConfirmed {
		base *= 0.9
	}

	return clamp(base, 0, 100)
}

// baseAllocation is the pre-cost, pre-regime allocation fraction of
// portfolio (spec §4.6): a floor of 1.5% scaled up with win rate above
// 60%, clamped to [0.1%, 5%].
func baseAllocation(winRate float64) float64 {
	excess := winRate - 0.60
	if excess < 0 {
		excess = 0
	}
	alloc := 0.015 + excess*0.0375
	return clamp(alloc, 0.001, 0.05)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
