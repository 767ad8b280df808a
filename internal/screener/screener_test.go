package screener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
	"github.com/aristath/setuptrader/internal/patterns"
)

func TestScreenRejectsWhenContextInvalid(t *testing.T) {
	bars := make([]domain.Bar, 200)
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price *= 1.001 // steadily rising -> near the high, context invalid
		bars[i] = domain.Bar{Time: start.AddDate(0, 0, i), Close: price, Open: price, High: price, Low: price, Volume: 1000}
	}
	ph := domain.PriceHistory{Ticker: "UP", Bars: bars}
	md := marketdata.New("md", ph)

	_, rejection := Screen(md, patterns.Default(), config.Default(), 1, EarningsRiskNone)
	if assert.NotNil(t, rejection) {
		assert.Equal(t, "context", rejection.Stage)
	}
}

func TestBaseAllocationClampAndFloor(t *testing.T) {
	assert.InDelta(t, 0.015, baseAllocation(0.50), 1e-9)
	assert.InDelta(t, 0.029625, baseAllocation(0.99), 1e-9) // 0.015 + 0.39*0.0375
	assert.GreaterOrEqual(t, baseAllocation(0.0), 0.001)
}

func TestCompositeScoreClampedAndPenalized(t *testing.T) {
	ep := domain.EvaluatedPattern{
		Tier:   domain.TierCore,
		Robust: domain.RobustStatistics{RobustScore: 100},
		Situation: domain.Situation{Metadata: domain.SituationMetadata{VolumeConfirmed: true}},
	}
	full := compositeScore(ep, true, EarningsRiskNone)
	assert.LessOrEqual(t, full, 100.0)

	penalized := compositeScore(ep, true, EarningsRiskHigh)
	assert.Less(t, penalized, full)
}

func TestBestPatternPrefersHigherTierThenExpectedValue(t *testing.T) {
	low := domain.EvaluatedPattern{Tier: domain.TierSecondary, ExpectedValue: 0.5}
	high := domain.EvaluatedPattern{Tier: domain.TierCore, ExpectedValue: 0.01}
	higherEVsameTier := domain.EvaluatedPattern{Tier: domain.TierCore, ExpectedValue: 0.9}

	best, ok := bestPattern([]domain.EvaluatedPattern{low, high, higherEVsameTier})
	assert.True(t, ok)
	assert.Equal(t, domain.TierCore, best.Tier)
	assert.Equal(t, 0.9, best.ExpectedValue)
}
