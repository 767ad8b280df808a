package robust

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const permutationTrials = 1000

// PermutationTest shuffles the sign of each return independently 1,000
// times and checks whether the observed mean exceeds the 95th percentile
// of the shuffled means (spec §4.4 — this supersedes the original
// bootstrap-against-market-returns test; spec.md's own redesign governs
// here). seed derives deterministically from masterSeed and ticker per
// spec §9's parallel-worker seeding rule.
func PermutationTest(returns []float64, masterSeed int64, ticker string) bool {
	n := len(returns)
	if n == 0 {
		return false
	}
	observed := stat.Mean(returns, nil)

	rng := rand.New(rand.NewSource(WorkerSeed(masterSeed, ticker)))
	shuffledMeans := make([]float64, permutationTrials)
	buf := make([]float64, n)
	for trial := 0; trial < permutationTrials; trial++ {
		for i, r := range returns {
			if rng.Intn(2) == 0 {
				buf[i] = r
			} else {
				buf[i] = -r
			}
		}
		shuffledMeans[trial] = stat.Mean(buf, nil)
	}
	sort.Float64s(shuffledMeans)

	rank := int(math.Ceil(0.95 * float64(permutationTrials)))
	if rank >= permutationTrials {
		rank = permutationTrials - 1
	}
	threshold := shuffledMeans[rank]
	return observed > threshold
}

// WorkerSeed derives a deterministic per-ticker seed from the run's
// master seed, so parallel workers reproduce identical randomized results
// regardless of worker count or completion order (spec §9).
func WorkerSeed(masterSeed int64, ticker string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	tickerHash := h.Sum64()
	return masterSeed ^ int64(tickerHash)
}
