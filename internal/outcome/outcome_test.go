package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/domain"
)

func TestForwardReturnsExcludesFiresPastEnd(t *testing.T) {
	closes := []float64{100, 110, 120, 130, 140} // last index 4
	situation := domain.Situation{Indices: []int{0, 2, 4}}
	fr := ForwardReturns(closes, situation, 2)
	// i=0 -> 2 ok (120/100-1=0.2); i=2 -> 4 ok (140/120-1); i=4 -> 6 excluded
	assert.Len(t, fr.Returns, 2)
	assert.InDelta(t, 0.2, fr.Returns[0], 1e-9)
}

func TestAnalyzeEmptyReturnsZeroValues(t *testing.T) {
	stats := Analyze(domain.ForwardReturns{Horizon: 21})
	assert.Equal(t, 0, stats.N)
	assert.Zero(t, stats.Mean)
	assert.Zero(t, stats.WinRate)
}

func TestWilsonIntervalKnownExample(t *testing.T) {
	// spec §8 scenario 3: n=100, w=65 -> 0.65 +/- ~0.093
	lower, upper, margin := WilsonInterval(65, 100)
	assert.InDelta(t, 0.093, margin, 0.005)
	assert.InDelta(t, 0.558, lower, 0.01)
	assert.InDelta(t, 0.734, upper, 0.01)
}

func TestWilsonIntervalMonotonicWidthShrinksWithN(t *testing.T) {
	_, _, marginSmall := WilsonInterval(65, 100)
	_, _, marginLarge := WilsonInterval(650, 1000)
	assert.Less(t, marginLarge, marginSmall)
}

func TestWilsonIntervalBracketsRawWinRate(t *testing.T) {
	for _, tc := range []struct{ w, n int }{{1, 1}, {5, 10}, {65, 100}, {0, 20}} {
		lower, upper, _ := WilsonInterval(tc.w, tc.n)
		raw := float64(tc.w) / float64(tc.n)
		assert.LessOrEqual(t, lower, raw+1e-9)
		assert.GreaterOrEqual(t, upper, raw-1e-9)
	}
}
