package ranker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/domain"
)

func fixtureCandidates() []domain.Setup {
	return []domain.Setup{
		{Ticker: "AAA", Tier: domain.TierPrimary, ExpectedValue: 0.02, RobustScore: 50},
		{Ticker: "BBB", Tier: domain.TierCore, ExpectedValue: 0.01, RobustScore: 80},
		{Ticker: "CCC", Tier: domain.TierCore, ExpectedValue: 0.03, RobustScore: 80},
		{Ticker: "DDD", Tier: domain.TierSecondary, ExpectedValue: 0.10, RobustScore: 90},
	}
}

func TestRankOrdersByTierThenRobustScoreThenEV(t *testing.T) {
	ranked := Rank(fixtureCandidates(), 10, false)
	tickers := make([]string, len(ranked))
	for i, s := range ranked {
		tickers[i] = s.Ticker
	}
	assert.Equal(t, []string{"CCC", "BBB", "AAA", "DDD"}, tickers)
}

func TestRankTruncatesToN(t *testing.T) {
	ranked := Rank(fixtureCandidates(), 2, false)
	assert.Len(t, ranked, 2)
}

func TestRankMarksPartial(t *testing.T) {
	ranked := Rank(fixtureCandidates(), 10, true)
	for _, s := range ranked {
		assert.True(t, s.Partial)
	}
}

func TestRankTickerTieBreakIsDeterministic(t *testing.T) {
	candidates := []domain.Setup{
		{Ticker: "ZED", Tier: domain.TierCore, ExpectedValue: 0.05, RobustScore: 70},
		{Ticker: "ABC", Tier: domain.TierCore, ExpectedValue: 0.05, RobustScore: 70},
	}
	ranked := Rank(candidates, 10, false)
	assert.Equal(t, "ABC", ranked[0].Ticker)
	assert.Equal(t, "ZED", ranked[1].Ticker)
}

func TestRankIsInvariantToInputOrder(t *testing.T) {
	base := fixtureCandidates()
	shuffled := make([]domain.Setup, len(base))
	copy(shuffled, base)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := Rank(base, 10, false)
	b := Rank(shuffled, 10, false)
	assert.Equal(t, a, b)
}
