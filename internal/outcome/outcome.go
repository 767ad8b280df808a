// Package outcome computes forward-return distributions and their basic
// statistics for a Situation, at each configured horizon.
package outcome

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/setuptrader/internal/domain"
)

// wilsonZ95 is the z-score for a 95% Wilson score interval.
const wilsonZ95 = 1.96

// ForwardReturns collects r_h(i) = close[i+h]/close[i] - 1 for every fire
// index i of situation that has i+h <= len(closes)-1. Fires that would run
// past the end of the series are excluded from that horizon only (spec
// §3).
func ForwardReturns(closes []float64, situation domain.Situation, horizon int) domain.ForwardReturns {
	var returns []float64
	last := len(closes) - 1
	for _, i := range situation.Indices {
		if i+horizon > last {
			continue
		}
		if closes[i] == 0 {
			continue
		}
		returns = append(returns, closes[i+horizon]/closes[i]-1)
	}
	return domain.ForwardReturns{Horizon: horizon, Returns: returns}
}

// Analyze computes OutcomeStatistics for one horizon's forward returns.
// All formulas return zero-valued fields on an empty distribution.
func Analyze(fr domain.ForwardReturns) domain.OutcomeStatistics {
	n := len(fr.Returns)
	stats := domain.OutcomeStatistics{Horizon: fr.Horizon, N: n}
	if n == 0 {
		return stats
	}

	sorted := append([]float64(nil), fr.Returns...)
	sort.Float64s(sorted)

	stats.Mean = stat.Mean(fr.Returns, nil)
	stats.Median = median(sorted)
	stats.Std = stat.StdDev(fr.Returns, nil)

	wins := 0
	var winVals, lossVals []float64
	for _, r := range fr.Returns {
		if r > 0 {
			wins++
			winVals = append(winVals, r)
		} else if r < 0 {
			lossVals = append(lossVals, r)
		}
	}
	stats.WinRate = float64(wins) / float64(n)
	if len(winVals) > 0 {
		stats.AvgWin = stat.Mean(winVals, nil)
	}
	if len(lossVals) > 0 {
		stats.AvgLoss = stat.Mean(lossVals, nil)
		stats.WorstDrawdownProxy = minOf(lossVals)
		stats.WorstLoss = minOf(lossVals)
	}
	if stats.Std > 0 {
		stats.SharpeLike = stats.Mean / stats.Std
	}

	if n >= 3 && stats.Std > 0 {
		stats.Skewness = stat.Skew(fr.Returns, nil)
	}
	if n >= 4 && stats.Std > 0 {
		stats.Kurtosis = stat.ExKurtosis(fr.Returns, nil)
	}

	lower, upper, margin := wilsonInterval(wins, n)
	stats.WinRateCILower = lower
	stats.WinRateCIUpper = upper
	stats.WinRateCIMargin = margin

	return stats
}

// wilsonInterval computes the 95% Wilson score interval for a binomial
// proportion of successes/trials (spec §4.3, formula from the source's
// confidence_interval.py).
func wilsonInterval(successes, trials int) (lower, upper, margin float64) {
	if trials == 0 {
		return 0, 0, 0
	}
	p := float64(successes) / float64(trials)
	n := float64(trials)
	z := wilsonZ95
	z2 := z * z

	denom := 1 + z2/n
	center := p + z2/(2*n)
	spread := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n))

	lower = (center - spread) / denom
	upper = (center + spread) / denom
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	margin = (upper - lower) / 2
	return lower, upper, margin
}

// WilsonInterval exposes wilsonInterval for callers outside this package
// that need a raw Wilson CI (e.g. tests, reports).
func WilsonInterval(successes, trials int) (lower, upper, margin float64) {
	return wilsonInterval(successes, trials)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
