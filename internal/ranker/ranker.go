// Package ranker produces the final, deterministically ordered top-N list
// of Setups (spec §4.8): stable sort by tier, then robust score, then
// expected value, then ticker as the last tie-break, so that ranking is
// reproducible regardless of worker count or completion order.
package ranker

import (
	"sort"

	"github.com/aristath/setuptrader/internal/domain"
)

// Rank stable-sorts candidates by (tier desc, robust_score desc,
// expected_value desc, ticker asc) and returns the top n. robust_score is
// the pattern's RobustStatistics.RobustScore, distinct from Setup.Score
// (the composite §4.6 score, which this ordering does not use). If
// partial is true (the run was cancelled before every instrument
// completed), every returned Setup is marked Partial.
func Rank(candidates []domain.Setup, n int, partial bool) []domain.Setup {
	sorted := make([]domain.Setup, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() > b.Tier.Rank()
		}
		if a.RobustScore != b.RobustScore {
			return a.RobustScore > b.RobustScore
		}
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		return a.Ticker < b.Ticker
	})

	if n > len(sorted) {
		n = len(sorted)
	}

	out := make([]domain.Setup, n)
	for i := 0; i < n; i++ {
		s := sorted[i]
		s.Partial = partial
		out[i] = s
	}
	return out
}
