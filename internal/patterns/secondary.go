package patterns

import (
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
)

// DetectRSIOversold fires wherever RSI(14) < 30. Supporting evidence
// only; never selectable as a best pattern.
func DetectRSIOversold(md *marketdata.MarketData) (domain.Situation, error) {
	rsi := md.RSI(14)
	var fires []int
	for i, v := range rsi {
		if marketdata.Is(v) {
			continue
		}
		if v < 30 {
			fires = append(fires, i)
		}
	}
	return domain.Situation{
		Description: "RSI(14) Oversold",
		Indices:     fires,
		Confidence:  0.3,
		Metadata:    domain.SituationMetadata{SignalType: "momentum"},
	}, nil
}

// DetectGoldenCross fires the bar EMA(50) crosses above EMA(200).
func DetectGoldenCross(md *marketdata.MarketData) (domain.Situation, error) {
	ema50 := md.EMA(50)
	ema200 := md.EMA(200)
	var fires []int
	for i := 1; i < len(ema50); i++ {
		if marketdata.Is(ema50[i]) || marketdata.Is(ema200[i]) || marketdata.Is(ema50[i-1]) || marketdata.Is(ema200[i-1]) {
			continue
		}
		if ema50[i-1] <= ema200[i-1] && ema50[i] > ema200[i] {
			fires = append(fires, i)
		}
	}
	return domain.Situation{
		Description: "Golden Cross (EMA50 above EMA200)",
		Indices:     fires,
		Confidence:  0.4,
		Metadata:    domain.SituationMetadata{SignalType: "trend"},
	}, nil
}

// DetectGapUpDown fires wherever the open gaps more than 2% from the
// prior close, in either direction.
func DetectGapUpDown(md *marketdata.MarketData) (domain.Situation, error) {
	bars := md.Bars()
	var fires []int
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		if prevClose == 0 {
			continue
		}
		gap := (bars[i].Open - prevClose) / prevClose
		if absF(gap) > 0.02 {
			fires = append(fires, i)
		}
	}
	return domain.Situation{
		Description: "Gap Up/Down > 2%",
		Indices:     fires,
		Confidence:  0.25,
		Metadata:    domain.SituationMetadata{SignalType: "gap"},
	}, nil
}

// DetectCalendarRegularity fires on the first trading bar of each
// calendar month, a coarse proxy for documented month-of-year effects.
// Retained for diagnostics and regime-stability cross-checks; never
// selectable as best pattern (spec §9).
func DetectCalendarRegularity(md *marketdata.MarketData) (domain.Situation, error) {
	bars := md.Bars()
	var fires []int
	for i, b := range bars {
		if i == 0 {
			continue
		}
		if b.Time.Month() != bars[i-1].Time.Month() {
			fires = append(fires, i)
		}
	}
	return domain.Situation{
		Description: "Calendar Regularity (first bar of month)",
		Indices:     fires,
		Confidence:  0.2,
		Metadata:    domain.SituationMetadata{SignalType: "calendar"},
	}, nil
}
