// Package evaluator applies the statistical quality gate to a detected
// Situation: sample-size/priority tiering, an expected-value and
// risk-reward floor, a permutation significance test, and a regime
// (split-sample) stability check.
package evaluator

import (
	"math"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/outcome"
	"github.com/aristath/setuptrader/internal/robust"
)

// riskRewardSentinel is propagated, not floored, when avg_loss == 0 (spec
// §9 Open Question: the source's sentinel of 999, treated as "accept").
const riskRewardSentinel = 999.0

// Evaluate runs the full pattern-evaluation pipeline for one situation and
// reports whether it survived every gate. A false ok means the situation
// should contribute no candidate to the screener (INSUFFICIENT tier or a
// failed quality gate) — it is not itself an error.
func Evaluate(closes []float64, situation domain.Situation, cfg config.Config, masterSeed int64, ticker string) (domain.EvaluatedPattern, bool) {
	statsByHorizon := make(map[int]domain.OutcomeStatistics, len(cfg.Horizons))
	var evalFR domain.ForwardReturns
	var evalStats domain.OutcomeStatistics

	for _, h := range cfg.Horizons {
		fr := outcome.ForwardReturns(closes, situation, h)
		stats := outcome.Analyze(fr)
		statsByHorizon[h] = stats
		if h == cfg.EvaluationHorizon {
			evalFR = fr
			evalStats = stats
		}
	}

	tier := classify(situation.Metadata.Priority, evalStats.N, cfg.MinSampleSizes)
	if tier == domain.TierInsufficient {
		return domain.EvaluatedPattern{}, false
	}

	expectedValue := evalStats.WinRate*evalStats.AvgWin - (1-evalStats.WinRate)*math.Abs(evalStats.AvgLoss)
	if expectedValue <= cfg.EVFloor {
		return domain.EvaluatedPattern{}, false
	}

	riskReward, sentinel := riskRewardRatio(evalStats.AvgWin, evalStats.AvgLoss)
	if !sentinel && riskReward < cfg.RRRFloor {
		return domain.EvaluatedPattern{}, false
	}

	if !robust.PermutationTest(evalFR.Returns, masterSeed, ticker) {
		return domain.EvaluatedPattern{}, false
	}

	if !regimeStable(evalFR.Returns) {
		return domain.EvaluatedPattern{}, false
	}

	wins := 0
	for _, r := range evalFR.Returns {
		if r > 0 {
			wins++
		}
	}
	rs := robust.Compute(robust.Inputs{
		Returns:   evalFR.Returns,
		Wins:      wins,
		N:         evalStats.N,
		AvgWin:    evalStats.AvgWin,
		AvgLoss:   evalStats.AvgLoss,
		WorstLoss: evalStats.WorstLoss,
	})

	return domain.EvaluatedPattern{
		Situation:       situation,
		StatsByHorizon:  statsByHorizon,
		Robust:          rs,
		Tier:            tier,
		ExpectedValue:   expectedValue,
		RiskRewardRatio: riskReward,
		RRRSentinel:     sentinel,
	}, true
}

// classify assigns a Tier per spec §4.4. CORE and PRIMARY require
// priority PRIMARY; a SECONDARY-priority situation can never rise above
// SECONDARY tier, matching §4.2's "SECONDARY may appear as context but
// never as the selected best pattern."
func classify(priority domain.Priority, n int, thresholds config.SampleSizeThresholds) domain.Tier {
	if priority == domain.PriorityPrimary {
		switch {
		case n >= thresholds.Core:
			return domain.TierCore
		case n >= thresholds.Primary:
			return domain.TierPrimary
		case n >= thresholds.Secondary:
			return domain.TierSecondary
		default:
			return domain.TierInsufficient
		}
	}
	if n >= thresholds.Secondary {
		return domain.TierSecondary
	}
	return domain.TierInsufficient
}

func riskRewardRatio(avgWin, avgLoss float64) (ratio float64, sentinel bool) {
	if avgLoss == 0 {
		return riskRewardSentinel, true
	}
	return avgWin / math.Abs(avgLoss), false
}

// regimeStable splits the evaluation-horizon returns into two halves in
// fire order and requires the worse half's win rate to be at least half
// of the overall win rate (spec §4.4).
func regimeStable(returns []float64) bool {
	n := len(returns)
	if n == 0 {
		return false
	}
	overall := winRate(returns)
	mid := n / 2
	first := winRate(returns[:mid])
	second := winRate(returns[mid:])
	worse := first
	if second < first {
		worse = second
	}
	return worse >= 0.5*overall
}

func winRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}
