// Package contextfilter implements the single-instrument prefilter (the
// "Vattenpasset" gate): an instrument is only eligible at all if its
// current price sits in a mean-reversion window well below its recent
// high.
package contextfilter

import "github.com/aristath/setuptrader/internal/marketdata"

// MinDeclinePct is the spec's default context-gate threshold; callers
// should prefer config.Config.MinDeclinePct, this is the fallback.
const MinDeclinePct = 0.10

// Result is the outcome of evaluating the context gate for the current
// bar of one instrument.
type Result struct {
	DeclineFromHigh float64
	Valid           bool
}

// Evaluate computes decline_from_high = (close[-1] - max(close[-90:])) /
// max(close[-90:]) and checks it against minDeclinePct (spec §4.5).
// closes must be the full aligned close series; rollingHigh90 is
// MarketData.RollingHigh(90) for that same series.
func Evaluate(closes, rollingHigh90 []float64, minDeclinePct float64) Result {
	last := len(closes) - 1
	if last < 0 {
		return Result{}
	}
	high := rollingHigh90[last]
	if marketdata.Is(high) || high == 0 {
		return Result{} // too little history to evaluate: not eligible
	}
	decline := (closes[last] - high) / high
	return Result{
		DeclineFromHigh: decline,
		Valid:           decline <= -minDeclinePct,
	}
}
