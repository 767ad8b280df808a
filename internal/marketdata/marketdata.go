// Package marketdata wraps a domain.PriceHistory with aligned derived
// series (returns, log returns, rolling stats, ATR/EMA/RSI), computed
// lazily and memoized in an arena scoped to one pipeline run.
package marketdata

import (
	"math"
	"sync"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/setuptrader/internal/domain"
)

// Missing is the leading-window sentinel every derived series uses where
// the indicator is not yet defined. Callers must check for it explicitly
// rather than relying on a zero value, since zero is a valid reading.
const Missing = math.MaxFloat64

func isMissing(v float64) bool { return v == Missing || math.IsNaN(v) }

type cacheKey struct {
	kind   string
	window int
}

// MarketData is the per-instrument indicator arena described in spec §9:
// it owns its derived-series cache exclusively for the lifetime of one
// pipeline run and is released when that run's ranking completes. It is
// never shared across instruments and never valid against another
// PriceHistory.
type MarketData struct {
	ID      domain.MarketDataID
	history domain.PriceHistory

	mu    sync.Mutex
	cache map[cacheKey][]float64
}

// New wraps a validated PriceHistory. Callers must call
// domain.PriceHistory.Validate first; New does not re-validate.
func New(id domain.MarketDataID, history domain.PriceHistory) *MarketData {
	return &MarketData{
		ID:      id,
		history: history,
		cache:   make(map[cacheKey][]float64),
	}
}

// Ticker returns the owning instrument's ticker.
func (m *MarketData) Ticker() string { return m.history.Ticker }

// Len returns the number of bars, the length every derived series shares.
func (m *MarketData) Len() int { return m.history.Len() }

// Bars exposes the raw bars.
func (m *MarketData) Bars() []domain.Bar { return m.history.Bars }

// Closes returns the raw close-price series.
func (m *MarketData) Closes() []float64 { return m.history.Closes() }

func (m *MarketData) get(key cacheKey, compute func() []float64) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.cache[key]; ok {
		return v
	}
	v := compute()
	m.cache[key] = v
	return v
}

// Returns is the simple one-bar return series, leading-missing at index 0.
func (m *MarketData) Returns() []float64 {
	return m.get(cacheKey{kind: "returns"}, func() []float64 {
		closes := m.Closes()
		out := make([]float64, len(closes))
		if len(out) > 0 {
			out[0] = Missing
		}
		for i := 1; i < len(closes); i++ {
			if closes[i-1] == 0 {
				out[i] = Missing
				continue
			}
			out[i] = closes[i]/closes[i-1] - 1
		}
		return out
	})
}

// LogReturns is the log-return series, leading-missing at index 0.
func (m *MarketData) LogReturns() []float64 {
	return m.get(cacheKey{kind: "log_returns"}, func() []float64 {
		closes := m.Closes()
		out := make([]float64, len(closes))
		if len(out) > 0 {
			out[0] = Missing
		}
		for i := 1; i < len(closes); i++ {
			if closes[i-1] <= 0 || closes[i] <= 0 {
				out[i] = Missing
				continue
			}
			out[i] = math.Log(closes[i] / closes[i-1])
		}
		return out
	})
}

// RollingMean computes the trailing n-bar simple mean of closes, one
// series entry per bar, missing for the first n-1 bars. No look-ahead:
// the value at index i depends only on bars <= i.
func (m *MarketData) RollingMean(n int) []float64 {
	return m.get(cacheKey{kind: "rolling_mean", window: n}, func() []float64 {
		return rollingApply(m.Closes(), n, func(window []float64) float64 {
			return stat.Mean(window, nil)
		})
	})
}

// RollingStd computes the trailing n-bar sample standard deviation of
// closes, missing for the first n-1 bars.
func (m *MarketData) RollingStd(n int) []float64 {
	return m.get(cacheKey{kind: "rolling_std", window: n}, func() []float64 {
		return rollingApply(m.Closes(), n, func(window []float64) float64 {
			return stat.StdDev(window, nil)
		})
	})
}

func rollingApply(series []float64, n int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		if i < n-1 || n <= 0 {
			out[i] = Missing
			continue
		}
		out[i] = fn(series[i-n+1 : i+1])
	}
	return out
}

// EMA computes the n-period exponential moving average, seeded from the
// first n bars' simple mean, via Wilder/talib's standard implementation.
// Missing for the first n-1 bars.
func (m *MarketData) EMA(n int) []float64 {
	return m.get(cacheKey{kind: "ema", window: n}, func() []float64 {
		return talibSeries(talib.Ema(m.Closes(), n), n)
	})
}

// RSI computes the n-period Wilder-smoothed RSI. Missing for the first n
// bars.
func (m *MarketData) RSI(n int) []float64 {
	return m.get(cacheKey{kind: "rsi", window: n}, func() []float64 {
		return talibSeries(talib.Rsi(m.Closes(), n), n+1)
	})
}

// ATR computes the n-period Wilder-smoothed Average True Range. Missing
// for the first n bars.
func (m *MarketData) ATR(n int) []float64 {
	return m.get(cacheKey{kind: "atr", window: n}, func() []float64 {
		bars := m.Bars()
		highs := make([]float64, len(bars))
		lows := make([]float64, len(bars))
		closes := make([]float64, len(bars))
		for i, b := range bars {
			highs[i] = b.High
			lows[i] = b.Low
			closes[i] = b.Close
		}
		return talibSeries(talib.Atr(highs, lows, closes, n), n+1)
	})
}

// talibSeries normalizes a go-talib output (one value per input bar, with
// placeholder values in its lookback region) into the package's Missing
// sentinel: the first minWindow-1 entries, and any NaN or Inf value,
// become Missing.
func talibSeries(v []float64, minWindow int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if i < minWindow-1 || math.IsNaN(x) || math.IsInf(x, 0) {
			out[i] = Missing
			continue
		}
		out[i] = x
	}
	return out
}

// RollingHigh returns, at each index i, the maximum close over bars
// [i-n+1, i], missing for the first n-1 bars. Used by the context filter
// (90-bar high) and pattern detectors.
func (m *MarketData) RollingHigh(n int) []float64 {
	return m.get(cacheKey{kind: "rolling_high", window: n}, func() []float64 {
		closes := m.Closes()
		return rollingApply(closes, n, func(w []float64) float64 {
			max := w[0]
			for _, v := range w[1:] {
				if v > max {
					max = v
				}
			}
			return max
		})
	})
}

// Is reports whether v is this package's missing-window sentinel.
func Is(v float64) bool { return isMissing(v) }
