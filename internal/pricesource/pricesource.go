// Package pricesource defines the collaborator boundary the pipeline uses
// to fetch OHLCV history for one instrument (spec §5 "Price source"), plus
// a fixture-backed implementation for tests and local runs against a
// pre-downloaded dataset.
package pricesource

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/setuptrader/internal/domain"
)

// Source fetches price history for one ticker as of a given date, looking
// back the requested number of years. Implementations may hit a live
// vendor API, a local cache, or (as here) a fixture directory.
type Source interface {
	Fetch(ticker string, asOf time.Time, lookbackYears int) (domain.PriceHistory, error)
}

// FixtureSource reads one CSV file per ticker from a directory, with
// columns date,open,high,low,close,volume. It is the default Source used
// by tests and local backtesting runs where no live vendor connection is
// configured.
type FixtureSource struct {
	Dir string
}

// NewFixtureSource returns a Source backed by CSV files under dir.
func NewFixtureSource(dir string) FixtureSource {
	return FixtureSource{Dir: dir}
}

// Fetch loads ticker.csv from the fixture directory, filters to bars at or
// before asOf, and trims to the lookback window.
func (s FixtureSource) Fetch(ticker string, asOf time.Time, lookbackYears int) (domain.PriceHistory, error) {
	path := filepath.Join(s.Dir, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		return domain.PriceHistory{}, &domain.DataError{Ticker: ticker, Reason: "fixture not found: " + err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return domain.PriceHistory{}, &domain.DataError{Ticker: ticker, Reason: "fixture parse error: " + err.Error()}
	}
	if len(rows) < 2 {
		return domain.PriceHistory{}, &domain.DataError{Ticker: ticker, Reason: "fixture has no data rows"}
	}

	cutoff := asOf.AddDate(-lookbackYears, 0, 0)
	var bars []domain.Bar
	for _, row := range rows[1:] { // skip header
		bar, err := parseRow(row)
		if err != nil {
			return domain.PriceHistory{}, &domain.DataError{Ticker: ticker, Reason: "fixture row error: " + err.Error()}
		}
		if bar.Time.After(asOf) || bar.Time.Before(cutoff) {
			continue
		}
		bars = append(bars, bar)
	}

	ph := domain.PriceHistory{Ticker: ticker, Bars: bars}
	if err := ph.Validate(); err != nil {
		return domain.PriceHistory{}, err
	}
	return ph, nil
}

func parseRow(row []string) (domain.Bar, error) {
	if len(row) < 6 {
		return domain.Bar{}, fmt.Errorf("expected 6 columns, got %d", len(row))
	}
	t, err := time.Parse("2006-01-02", row[0])
	if err != nil {
		return domain.Bar{}, err
	}
	open, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return domain.Bar{}, err
	}
	high, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return domain.Bar{}, err
	}
	low, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return domain.Bar{}, err
	}
	closeP, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return domain.Bar{}, err
	}
	volume, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return domain.Bar{}, err
	}
	return domain.Bar{Time: t, Open: open, High: high, Low: low, Close: closeP, Volume: volume}, nil
}
