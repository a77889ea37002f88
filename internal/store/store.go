// Package store persists the per-unit "last successfully fetched" timestamps
// that back the refresh policy. The mapping lives in a single SQLite file so
// it survives process restarts; losing it would make every future run
// re-fetch the entire inventory.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/climate-mirror/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS station_refresh (
	path         TEXT PRIMARY KEY,
	refreshed_at INTEGER NOT NULL
);
`

// Staleness maps a unit's local path to the Unix time of its last successful
// fetch. Safe for concurrent use by fetch workers; each Set is durable on
// its own so a crash can never make an unfetched unit look fresh.
type Staleness struct {
	db *sql.DB
}

// Open creates or reopens the staleness database at path. Open failure is
// fatal for a mirror run and must abort before any fetch is attempted.
func Open(path string) (*Staleness, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %w", domain.ErrStore, dir, err)
		}
	}

	// busy_timeout rides out writer contention between workers;
	// synchronous=FULL makes each committed Set durable through a crash.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStore, path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", domain.ErrStore, path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", domain.ErrStore, err)
	}

	return &Staleness{db: db}, nil
}

// Get returns the last refresh time for key, or the zero time when the unit
// has never been fetched.
func (s *Staleness) Get(key string) (time.Time, error) {
	var unix int64
	err := s.db.QueryRow(`SELECT refreshed_at FROM station_refresh WHERE path = ?`, key).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: get %s: %w", domain.ErrStore, key, err)
	}
	return time.Unix(unix, 0).UTC(), nil
}

// Set records a successful fetch of key at t, overwriting any prior entry.
func (s *Staleness) Set(key string, t time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO station_refresh (path, refreshed_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		key, t.Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrStore, key, err)
	}
	return nil
}

// Len reports the number of recorded units. Used by cmd/audit.
func (s *Staleness) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM station_refresh`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStore, err)
	}
	return n, nil
}

// Keys returns every recorded unit path. Used by cmd/audit.
func (s *Staleness) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM station_refresh ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("%w: keys: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: scan key: %w", domain.ErrStore, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: keys: %w", domain.ErrStore, err)
	}
	return keys, nil
}

func (s *Staleness) Close() error {
	return s.db.Close()
}
