// Package robust computes small-sample-corrected statistics for a
// pattern's forward returns: Bayesian-smoothed win rate, a sample-size
// penalty factor, a one-sample significance test, and a pessimistic
// expected value that blends average and worst-case loss.
package robust

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/setuptrader/internal/domain"
)

const pessimisticConfidenceFactor = 0.5 // fixed per spec §4.3; not exposed in Config

// Inputs are the raw ingredients Compute needs; callers derive them from
// the OutcomeStatistics of the pattern's evaluation horizon.
type Inputs struct {
	Returns []float64// raw returns at the evaluation horizon
	Wins    int
	N       int
	AvgWin  float64
	AvgLoss float64 // mean of negative returns, 0 if none
	WorstLoss float64 // minimum observed return, 0 if none (spec §9)
}

// Compute derives domain.RobustStatistics from Inputs, per spec §4.3. All
// formulas return zero-valued fields on n==0.
func Compute(in Inputs) domain.RobustStatistics {
	rs := domain.RobustStatistics{SampleSize: in.N}
	if in.N == 0 {
		return rs
	}

	rs.RawWinRate = float64(in.Wins) / float64(in.N)
	rs.AdjustedWinRate = (float64(in.Wins) + 1) / (float64(in.N) + 2)
	rs.SampleSizeFactor = sampleSizeFactor(in.N)

	mean, std := 0.0, 0.0
	if len(in.Returns) > 0 {
		mean = stat.Mean(in.Returns, nil)
	}
	if len(in.Returns) > 1 {
		std = stat.StdDev(in.Returns, nil)
	}
	if std > 0 {
		rs.ReturnConsistency = mean / std
	}

	tStat, pValue := studentsTOneSample(in.Returns, mean, std)
	rs.TStatistic = tStat
	rs.PValue = pValue
	rs.IsSignificant = pValue < 0.05

	weightedLoss := math.Abs(in.AvgLoss)*(1-pessimisticConfidenceFactor) + math.Abs(in.WorstLoss)*pessimisticConfidenceFactor
	rs.PessimisticEV = rs.AdjustedWinRate*in.AvgWin - (1-rs.AdjustedWinRate)*weightedLoss

	rs.ConfidenceScore = confidenceScore(rs)
	rs.RobustScore = robustScore(rs)
	return rs
}

// sampleSizeFactor implements the breakpoint schedule from spec §4.3:
// 0.20 below 5, linear 0.20->0.60 across [5,15), linear 0.60->1.00 across
// [15,30), 1.00 at or above 30.
func sampleSizeFactor(n int) float64 {
	switch {
	case n < 5:
		return 0.20
	case n < 15:
		return 0.20 + 0.40*float64(n-5)/10.0
	case n < 30:
		return 0.60 + 0.40*float64(n-15)/15.0
	default:
		return 1.00
	}
}

// studentsTOneSample runs a one-sample t-test of returns against a
// population mean of 0, reporting the one-tailed p-value for H1: mean>0
// (the source's two-tailed ttest_1samp p-value halved, and set to 1 when
// the t statistic is not positive).
func studentsTOneSample(returns []float64, mean, std float64) (tStat, pValue float64) {
	n := len(returns)
	if n < 2 || std == 0 {
		return 0, 1.0
	}
	tStat = mean / (std / math.Sqrt(float64(n)))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	twoTailed := 2 * (1 - t.CDF(math.Abs(tStat)))
	if tStat > 0 {
		pValue = twoTailed / 2
	} else {
		pValue = 1.0
	}
	return tStat, pValue
}

func confidenceScore(rs domain.RobustStatistics) float64 {
	score := 40 * rs.SampleSizeFactor
	score += 30 * minF(rs.ReturnConsistency/3, 1)
	switch {
	case rs.IsSignificant:
		score += 20
	case rs.PValue < 0.10:
		score += 10
	}
	score += 10 * minF(rs.AdjustedWinRate/0.7, 1)
	return score
}

func robustScore(rs domain.RobustStatistics) float64 {
	score := 0.40 * rs.ConfidenceScore
	score += 0.30 * clamp01(rs.PessimisticEV/0.10) * 100
	score += 0.20 * minF(rs.ReturnConsistency/3, 1) * 100
	if rs.IsSignificant {
		score += 0.10 * 100
	} else {
		score += 0.10 * 50
	}
	return score
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
