package patterns

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
)

func decliningThenBaseHistory(n int) domain.PriceHistory {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	price := 200.0
	r := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		switch {
		case i < n/3:
			price *= 1 - 0.01 - r.Float64()*0.005
		case i < 2*n/3:
			price *= 1 + (r.Float64()-0.5)*0.01
		default:
			price *= 1 + 0.005 + r.Float64()*0.005
		}
		if price < 1 {
			price = 1
		}
		bars[i] = domain.Bar{
			Time: start.AddDate(0, 0, i), Open: price, High: price * 1.01,
			Low: price * 0.99, Close: price, Volume: 500000 - float64(i%50)*1000,
		}
	}
	return domain.PriceHistory{Ticker: "SIM", Bars: bars}
}

func TestDetectorIndicesWithinBounds(t *testing.T) {
	ph := decliningThenBaseHistory(400)
	md := marketdata.New("md", ph)

	for _, reg := range Default() {
		situation, err := reg.Detect(md)
		assert.NoError(t, err)
		for _, idx := range situation.Indices {
			assert.GreaterOrEqual(t, idx, 0, "detector %s", reg.ID)
			assert.Less(t, idx, ph.Len(), "detector %s", reg.ID)
		}
	}
}

func TestNoLookAheadPrefixProperty(t *testing.T) {
	ph := decliningThenBaseHistory(300)
	full := marketdata.New("md-full", ph)

	stableK := 250 // window sizes stabilize well before this
	prefixHistory := domain.PriceHistory{Ticker: ph.Ticker, Bars: ph.Bars[:stableK]}
	prefix := marketdata.New("md-prefix", prefixHistory)

	for _, reg := range Default() {
		fullSit, err := reg.Detect(full)
		assert.NoError(t, err)
		prefixSit, err := reg.Detect(prefix)
		assert.NoError(t, err)

		var fullBeforeK []int
		for _, idx := range fullSit.Indices {
			if idx < stableK {
				fullBeforeK = append(fullBeforeK, idx)
			}
		}
		assert.Equal(t, prefixSit.Indices, fullBeforeK, "detector %s violated no-look-ahead", reg.ID)
	}
}

func TestRunAllTagsIDAndPriority(t *testing.T) {
	ph := decliningThenBaseHistory(400)
	md := marketdata.New("md", ph)
	out := Default().RunAll(md)
	for id, situation := range out {
		assert.Equal(t, id, situation.ID)
		assert.NotEmpty(t, situation.Metadata.Priority)
	}
}
