// Package snapshot writes one JSON record per pipeline run to a run-log
// directory, and indexes each run in a small SQLite table so past runs can
// be listed and fetched without scanning the directory (spec §5 "Shared
// resources" / "run-log snapshot directory").
package snapshot

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/setuptrader/internal/database"
	"github.com/aristath/setuptrader/internal/domain"
)

// Record is the full, self-contained output of one pipeline run.
type Record struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Partial    bool           `json:"partial"`
	Setups     []domain.Setup `json:"setups"`
	Rejections []domain.Rejection `json:"rejections"`
	Checksum   string         `json:"checksum"`
}

// Store manages the run-log directory and its SQLite index.
type Store struct {
	dir string
	db  *database.DB
}

// Open opens (creating if needed) the run-log directory and its index
// database, backed by internal/database's WAL/standard-profile connection.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, "run_index.db"),
		Profile: database.ProfileStandard,
		Name:    "run_index",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}
	return &Store{dir: dir, db: db}, nil
}

// Close releases the underlying index connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write assigns a new run id, computes a checksum over the setups and
// rejections, writes the JSON file via a temp-file-then-rename (so a
// reader never observes a half-written snapshot), and records the run in
// the index.
func (s *Store) Write(startedAt, finishedAt time.Time, partial bool, setups []domain.Setup, rejections []domain.Rejection) (Record, error) {
	rec := Record{
		RunID:      uuid.NewString(),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Partial:    partial,
		Setups:     setups,
		Rejections: rejections,
	}

	body, err := json.MarshalIndent(struct {
		RunID      string              `json:"run_id"`
		StartedAt  time.Time           `json:"started_at"`
		FinishedAt time.Time           `json:"finished_at"`
		Partial    bool                `json:"partial"`
		Setups     []domain.Setup      `json:"setups"`
		Rejections []domain.Rejection  `json:"rejections"`
	}{rec.RunID, rec.StartedAt, rec.FinishedAt, rec.Partial, rec.Setups, rec.Rejections}, "", "  ")
	if err != nil {
		return Record{}, err
	}
	sum := sha256.Sum256(body)
	rec.Checksum = hex.EncodeToString(sum[:])

	finalPath := s.path(rec.RunID)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return Record{}, fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return Record{}, fmt.Errorf("snapshot: rename into place: %w", err)
	}

	status := "complete"
	if partial {
		status = "partial"
	}
	if _, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, status, partial, snapshot_path) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, startedAt.UTC().Format(time.RFC3339), finishedAt.UTC().Format(time.RFC3339), status, boolToInt(partial), finalPath,
	); err != nil {
		return Record{}, fmt.Errorf("snapshot: index run: %w", err)
	}

	return rec, nil
}

// Read loads one run's JSON record by id.
func (s *Store) Read(runID string) (Record, error) {
	body, err := os.ReadFile(s.path(runID))
	if err != nil {
		return Record{}, fmt.Errorf("snapshot: read %s: %w", runID, err)
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("snapshot: parse %s: %w", runID, err)
	}
	return rec, nil
}

// Latest returns the run id of the most recently completed run, if any.
func (s *Store) Latest() (string, bool, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return runID, true, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
