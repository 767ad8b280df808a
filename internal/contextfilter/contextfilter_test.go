package contextfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
)

func TestEvaluateContextGate(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	closes[99] = 85 // 15% below the 90-bar high of 100

	history := domain.PriceHistory{Ticker: "X", Bars: make([]domain.Bar, len(closes))}
	for i, c := range closes {
		history.Bars[i] = domain.Bar{Close: c}
	}
	md := marketdata.New("md", history)
	high90 := md.RollingHigh(90)

	result := Evaluate(closes, high90, MinDeclinePct)
	assert.True(t, result.Valid)
	assert.InDelta(t, -0.15, result.DeclineFromHigh, 1e-9)
}

func TestEvaluateRejectsNearHigh(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	closes[99] = 98 // only 2% below high

	history := domain.PriceHistory{Ticker: "X", Bars: make([]domain.Bar, len(closes))}
	for i, c := range closes {
		history.Bars[i] = domain.Bar{Close: c}
	}
	md := marketdata.New("md", history)
	high90 := md.RollingHigh(90)

	result := Evaluate(closes, high90, MinDeclinePct)
	assert.False(t, result.Valid)
}

func TestEvaluateTooShortHistoryIsInvalid(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100
	}
	history := domain.PriceHistory{Ticker: "X", Bars: make([]domain.Bar, len(closes))}
	for i, c := range closes {
		history.Bars[i] = domain.Bar{Close: c}
	}
	md := marketdata.New("md", history)
	high90 := md.RollingHigh(90)

	result := Evaluate(closes, high90, MinDeclinePct)
	assert.False(t, result.Valid)
}
