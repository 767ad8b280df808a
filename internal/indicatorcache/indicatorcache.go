// Package indicatorcache persists derived indicator series across runs so
// a pipeline re-run over the same instrument/date does not recompute
// EMA/RSI/ATR from scratch (spec §5 "Shared resources"). It is optional:
// callers that don't configure a path simply recompute every run.
package indicatorcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS indicator_values (
	ticker     TEXT    NOT NULL,
	as_of_date TEXT    NOT NULL,
	indicator  TEXT    NOT NULL,
	window     INTEGER NOT NULL,
	payload    BLOB    NOT NULL,
	updated_at TEXT    NOT NULL,
	PRIMARY KEY (ticker, as_of_date, indicator, window)
);`

// Key identifies one cached indicator series.
type Key struct {
	Ticker    string
	AsOfDate  string // YYYY-MM-DD
	Indicator string
	Window    int
}

// Cache wraps a SQLite-backed indicator store, using the cgo mattn driver
// (as opposed to the pure-Go driver behind internal/database, which backs
// the run index) so both drivers referenced in the module's dependency
// stack are actually exercised. All access is serialized through a mutex;
// the last writer for a key wins.
type Cache struct {
	mu   sync.Mutex
	conn *sql.DB
}

// Open opens (creating if needed) the indicator cache database at path.
func Open(path string) (*Cache, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("indicatorcache: create dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("indicatorcache: open: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("indicatorcache: migrate: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Get returns the cached series for key, or ok=false on a cache miss.
func (c *Cache) Get(key Key) ([]float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var payload []byte
	row := c.conn.QueryRow(
		`SELECT payload FROM indicator_values WHERE ticker=? AND as_of_date=? AND indicator=? AND window=?`,
		key.Ticker, key.AsOfDate, key.Indicator, key.Window,
	)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var series []float64
	if err := msgpack.Unmarshal(payload, &series); err != nil {
		return nil, false, err
	}
	return series, true, nil
}

// Put writes series for key, overwriting any prior value (last-write-wins).
func (c *Cache) Put(key Key, series []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := msgpack.Marshal(series)
	if err != nil {
		return err
	}

	_, err = c.conn.Exec(
		`INSERT INTO indicator_values (ticker, as_of_date, indicator, window, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ticker, as_of_date, indicator, window)
		 DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		key.Ticker, key.AsOfDate, key.Indicator, key.Window, payload, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
