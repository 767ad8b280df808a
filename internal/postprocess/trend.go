package postprocess

// TrendFilterResult is the outcome of the post-processor's first step.
type TrendFilterResult struct {
	Distance float64
	Rejected bool
	AllocMultiplier float64 // 1.0 normally, 0.7 in the soft-downtrend band
}

// ApplyTrendFilter computes distance = (close - EMA200) / EMA200 and
// rejects outright below -10% (strong downtrend); between -10% and 0% it
// reduces the allocation by 30% instead of rejecting (spec §4.7 step 1).
func ApplyTrendFilter(close, ema200 float64) TrendFilterResult {
	if ema200 == 0 {
		return TrendFilterResult{Rejected: true}
	}
	distance := (close - ema200) / ema200
	if distance < -0.10 {
		return TrendFilterResult{Distance: distance, Rejected: true}
	}
	if distance < 0 {
		return TrendFilterResult{Distance: distance, AllocMultiplier: 0.7}
	}
	return TrendFilterResult{Distance: distance, AllocMultiplier: 1.0}
}
