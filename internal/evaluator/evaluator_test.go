package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
)

// strongCloses builds a close-price series where the fires at `indices`
// reliably produce a strong, consistent positive forward return at
// `horizon`, so the resulting pattern clears every quality gate.
func strongCloses(n, horizon int, indices []int) []float64 {
	closes := make([]float64, n)
	price := 100.0
	fireSet := make(map[int]bool)
	for _, i := range indices {
		fireSet[i] = true
	}
	for i := 0; i < n; i++ {
		closes[i] = price
		price *= 1.001
	}
	for _, i := range indices {
		if i+horizon < n {
			closes[i+horizon] = closes[i] * 1.20
		}
	}
	return closes
}

func manyFireIndices(count, spacing int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = i * spacing
	}
	return out
}

func TestClassifyTierThresholds(t *testing.T) {
	th := config.Default().MinSampleSizes
	assert.Equal(t, domain.TierCore, classify(domain.PriorityPrimary, 150, th))
	assert.Equal(t, domain.TierPrimary, classify(domain.PriorityPrimary, 75, th))
	assert.Equal(t, domain.TierSecondary, classify(domain.PriorityPrimary, 30, th))
	assert.Equal(t, domain.TierInsufficient, classify(domain.PriorityPrimary, 29, th))
	assert.Equal(t, domain.TierSecondary, classify(domain.PrioritySecondary, 1000, th))
}

func TestRiskRewardSentinel(t *testing.T) {
	ratio, sentinel := riskRewardRatio(0.05, 0)
	assert.True(t, sentinel)
	assert.Equal(t, riskRewardSentinel, ratio)

	ratio, sentinel = riskRewardRatio(0.09, -0.03)
	assert.False(t, sentinel)
	assert.InDelta(t, 3.0, ratio, 1e-9)
}

func TestRegimeStableSplitHalves(t *testing.T) {
	// overall 100% win rate, both halves 100% -> stable
	allWins := []float64{0.05, 0.05, 0.05, 0.05}
	assert.True(t, regimeStable(allWins))

	// worse half far below half of overall win rate -> unstable
	lumpy := []float64{0.05, 0.05, 0.05, 0.05, -0.01, -0.01, -0.01, -0.01}
	assert.False(t, regimeStable(lumpy))
}

func TestEvaluateRejectsInsufficientSampleSize(t *testing.T) {
	cfg := config.Default()
	closes := strongCloses(100, 63, []int{10, 20})
	situation := domain.Situation{
		Indices:  []int{10, 20},
		Metadata: domain.SituationMetadata{Priority: domain.PriorityPrimary},
	}
	_, ok := Evaluate(closes, situation, cfg, 1, "AAA")
	assert.False(t, ok)
}

func TestEvaluateAcceptsStrongCorePattern(t *testing.T) {
	cfg := config.Default()
	indices := manyFireIndices(180, 2)
	n := indices[len(indices)-1] + cfg.EvaluationHorizon + 5
	closes := strongCloses(n, cfg.EvaluationHorizon, indices)
	situation := domain.Situation{
		Indices:  indices,
		Metadata: domain.SituationMetadata{Priority: domain.PriorityPrimary},
	}
	ep, ok := Evaluate(closes, situation, cfg, 1, "AAA")
	require.True(t, ok)
	assert.Equal(t, domain.TierCore, ep.Tier)
	assert.Greater(t, ep.ExpectedValue, 0.0)
}

func TestEvaluateSecondaryPriorityNeverReachesCore(t *testing.T) {
	cfg := config.Default()
	indices := manyFireIndices(200, 2)
	n := indices[len(indices)-1] + cfg.EvaluationHorizon + 5
	closes := strongCloses(n, cfg.EvaluationHorizon, indices)
	situation := domain.Situation{
		Indices:  indices,
		Metadata: domain.SituationMetadata{Priority: domain.PrioritySecondary},
	}
	ep, ok := Evaluate(closes, situation, cfg, 1, "AAA")
	if ok {
		assert.Equal(t, domain.TierSecondary, ep.Tier)
	}
}
