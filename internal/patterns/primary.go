package patterns

import (
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
)

var doubleBottomWindows = []int{40, 60, 80, 100, 120}

// DetectDoubleBottomAfterDecline scans windows of 40/60/80/100/120 bars
// for two local minima L1, L2 at least 10 bars apart with |L2-L1|/L1 <
// 0.05, a reaction high between them at least 2% above L1, declining
// volume at L2 relative to L1, and a prior 90-bar high at least 10% above
// L2. Fires at the bar of L2.
func DetectDoubleBottomAfterDecline(md *marketdata.MarketData) (domain.Situation, error) {
	closes := md.Closes()
	bars := md.Bars()
	n := len(closes)

	var fires []int
	volumeConfirmed := false

	for _, w := range doubleBottomWindows {
		if n < w {
			continue
		}
		for end := w; end <= n; end++ {
			start := end - w
			window := closes[start:end]
			minima := localMinima(window, 3)
			if len(minima) < 2 {
				continue
			}
			for a := 0; a < len(minima)-1; a++ {
				for b := a + 1; b < len(minima); b++ {
					l1Rel, l2Rel := minima[a], minima[b]
					if l2Rel-l1Rel < 10 {
						continue
					}
					l1Idx, l2Idx := start+l1Rel, start+l2Rel
					l1, l2 := closes[l1Idx], closes[l2Idx]
					if l1 == 0 {
						continue
					}
					if absF((l2-l1)/l1) >= 0.05 {
						continue
					}
					between := closes[l1Idx+1 : l2Idx]
					if len(between) == 0 {
						continue
					}
					h := maxOf(between)
					if (h-l1)/l1 < 0.02 {
						continue
					}
					priorStart := 0
					if l1Idx-90 > 0 {
						priorStart = l1Idx - 90
					}
					if priorStart >= l1Idx {
						continue
					}
					priorHigh := maxOf(closes[priorStart:l1Idx])
					if l2 == 0 || (priorHigh-l2)/l2 < 0.10 {
						continue
					}
					confirmed := bars[l2Idx].Volume < bars[l1Idx].Volume
					fires = append(fires, l2Idx)
					if confirmed {
						volumeConfirmed = true
					}
				}
			}
		}
	}

	return domain.Situation{
		Description: "Double Bottom after Decline",
		Indices:     dedupeSorted(fires),
		Confidence:  0.6,
		Metadata:    domain.SituationMetadata{SignalType: "structural_reversal", VolumeConfirmed: volumeConfirmed},
	}, nil
}

// DetectInverseHeadAndShoulders looks for three local minima LS, H, RS
// with H strictly below both shoulders and the shoulders within 10% of
// each other. Fires at the neckline-break bar (the first close above the
// max of the intermediate highs after RS), or at RS if no break is found
// within the remaining series.
func DetectInverseHeadAndShoulders(md *marketdata.MarketData) (domain.Situation, error) {
	closes := md.Closes()
	n := len(closes)
	if n < 60 {
		return domain.Situation{}, nil
	}

	minima := localMinima(closes, 5)
	var fires []int

	for i := 0; i+2 < len(minima); i++ {
		ls, h, rs := minima[i], minima[i+1], minima[i+2]
		lsPrice, hPrice, rsPrice := closes[ls], closes[h], closes[rs]
		if !(hPrice < lsPrice && hPrice < rsPrice) {
			continue
		}
		if lsPrice == 0 {
			continue
		}
		if absF((lsPrice-rsPrice)/lsPrice) >= 0.10 {
			continue
		}
		neckline := maxOf(closes[ls : rs+1])
		fire := rs
		for j := rs + 1; j < n; j++ {
			if closes[j] > neckline {
				fire = j
				break
			}
		}
		fires = append(fires, fire)
	}

	return domain.Situation{
		Description: "Inverse Head & Shoulders",
		Indices:     dedupeSorted(fires),
		Confidence:  0.6,
		Metadata:    domain.SituationMetadata{SignalType: "structural_reversal"},
	}, nil
}

// DetectBullFlagAfterDecline requires a >=15% decline followed by a
// 10-30 bar sideways channel whose realized volatility is lower than the
// decline's volatility. Fires at the last bar of the channel.
func DetectBullFlagAfterDecline(md *marketdata.MarketData) (domain.Situation, error) {
	closes := md.Closes()
	n := len(closes)
	if n < 80 {
		return domain.Situation{}, nil
	}

	var fires []int
	for channelLen := 10; channelLen <= 30; channelLen++ {
		for end := 60 + channelLen; end <= n; end++ {
			channel := closes[end-channelLen : end]
			declineWindow := closes[max(0, end-channelLen-60) : end-channelLen]
			if len(declineWindow) < 10 {
				continue
			}
			declineHigh := maxOf(declineWindow)
			declineLow := minOf(append(append([]float64{}, declineWindow...), channel...))
			if declineHigh == 0 {
				continue
			}
			declinePct := (declineLow - declineHigh) / declineHigh
			if declinePct > -0.15 {
				continue
			}
			channelStd := stdOf(channel) / meanOf(channel)
			declineStd := stdOf(declineWindow) / meanOf(declineWindow)
			if declineStd == 0 || channelStd >= declineStd {
				continue
			}
			fires = append(fires, end-1)
		}
	}

	return domain.Situation{
		Description: "Bull Flag After Decline",
		Indices:     dedupeSorted(fires),
		Confidence:  0.5,
		Metadata:    domain.SituationMetadata{SignalType: "structural_reversal"},
	}, nil
}

// DetectHigherLowsReversal fires at the third (and each subsequent) of a
// run of successive local minima that are each strictly higher than the
// previous one.
func DetectHigherLowsReversal(md *marketdata.MarketData) (domain.Situation, error) {
	closes := md.Closes()
	if len(closes) < 30 {
		return domain.Situation{}, nil
	}
	minima := localMinima(closes, 4)

	var fires []int
	run := 1
	for i := 1; i < len(minima); i++ {
		if closes[minima[i]] > closes[minima[i-1]] {
			run++
		} else {
			run = 1
		}
		if run >= 3 {
			fires = append(fires, minima[i])
		}
	}

	return domain.Situation{
		Description: "Higher Lows Reversal",
		Indices:     dedupeSorted(fires),
		Confidence:  0.55,
		Metadata:    domain.SituationMetadata{SignalType: "structural_reversal"},
	}, nil
}

// DetectNewMultiPeriodLowReclaim fires when the close reclaims EMA(20)
// within 5 bars of setting a 252-bar low.
func DetectNewMultiPeriodLowReclaim(md *marketdata.MarketData) (domain.Situation, error) {
	closes := md.Closes()
	n := len(closes)
	if n < 252 {
		return domain.Situation{}, nil
	}
	ema20 := md.EMA(20)

	var fires []int
	for i := 252; i < n; i++ {
		window := closes[i-252 : i+1]
		if closes[i] != minOf(window) {
			continue
		}
		limit := i + 5
		if limit >= n {
			limit = n - 1
		}
		for j := i + 1; j <= limit; j++ {
			if marketdata.Is(ema20[j]) {
				continue
			}
			if closes[j] > ema20[j] {
				fires = append(fires, j)
				break
			}
		}
	}

	return domain.Situation{
		Description: "New Multi-Period Low Reclaim",
		Indices:     dedupeSorted(fires),
		Confidence:  0.55,
		Metadata:    domain.SituationMetadata{SignalType: "structural_reversal"},
	}, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func dedupeSorted(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		seen[i] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	// simple insertion sort: fire counts per instrument are small (<< 1000)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
