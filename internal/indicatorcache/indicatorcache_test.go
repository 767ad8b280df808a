package indicatorcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	key := Key{Ticker: "AAA", AsOfDate: "2024-01-01", Indicator: "EMA", Window: 20}

	require.NoError(t, c.Put(key, []float64{1, 2, 3.5}))

	series, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3.5}, series)
}

func TestGetMissingKeyIsNoError(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Get(Key{Ticker: "MISSING"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwritesLastWriteWins(t *testing.T) {
	c := openTestCache(t)
	key := Key{Ticker: "AAA", AsOfDate: "2024-01-01", Indicator: "RSI", Window: 14}

	require.NoError(t, c.Put(key, []float64{10}))
	require.NoError(t, c.Put(key, []float64{20, 30}))

	series, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float64{20, 30}, series)
}
