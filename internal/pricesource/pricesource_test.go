package pricesource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, ticker, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ticker+".csv"), []byte(content), 0o644))
}

func TestFetchFiltersByLookbackWindow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAA", "date,open,high,low,close,volume\n"+
		"2020-01-02,10,11,9,10.5,1000\n"+
		"2023-06-01,20,21,19,20.5,2000\n"+
		"2023-06-02,20.5,21,20,20.8,2100\n")

	src := NewFixtureSource(dir)
	asOf := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	ph, err := src.Fetch("AAA", asOf, 1)
	require.NoError(t, err)
	assert.Len(t, ph.Bars, 2) // 2020 row excluded by the 1-year lookback
	assert.Equal(t, "AAA", ph.Ticker)
}

func TestFetchMissingFixtureIsDataError(t *testing.T) {
	src := NewFixtureSource(t.TempDir())
	_, err := src.Fetch("MISSING", time.Now().AddDate(0, 0, -1), 1)
	assert.Error(t, err)
}
