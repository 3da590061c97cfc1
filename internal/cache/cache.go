// Package cache stores remote lookups in SQLite so repeated identifier
// queries don't hit arXiv or Crossref again.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/bibref/internal/reference"
	_ "modernc.org/sqlite"
)

// Store is a persistent lookup cache keyed by normalized identifier.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Stats summarizes cache contents.
type Stats struct {
	Entries  int            `json:"entries"`
	Expired  int            `json:"expired"`
	BySource map[string]int `json:"by_source"`
	Oldest   *time.Time     `json:"oldest,omitempty"`
	Newest   *time.Time     `json:"newest,omitempty"`
	Path     string         `json:"path"`
	TTL      string         `json:"ttl"`
}

// Open opens or creates the cache database at path.
// A ttl of zero means entries never expire.
func Open(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lookups (
			identifier TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_lookups_source ON lookups(source);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Store{db: db, path: path, ttl: ttl, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached reference for key and the source that produced it.
// Expired entries are reported as misses and left for Put to overwrite.
func (s *Store) Get(key string) (reference.Reference, string, bool, error) {
	var (
		source    string
		payload   string
		fetchedAt int64
	)
	err := s.db.QueryRow(`SELECT source, payload, fetched_at FROM lookups WHERE identifier = ?`, key).
		Scan(&source, &payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Reference{}, "", false, nil
	}
	if err != nil {
		return reference.Reference{}, "", false, fmt.Errorf("reading cache: %w", err)
	}

	if s.expired(fetchedAt) {
		return reference.Reference{}, "", false, nil
	}

	var ref reference.Reference
	if err := json.Unmarshal([]byte(payload), &ref); err != nil {
		return reference.Reference{}, "", false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return ref, source, true, nil
}

// Put stores ref under key, replacing any previous entry.
func (s *Store) Put(key, source string, ref reference.Reference) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encoding reference: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO lookups (identifier, source, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		key, source, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() (int, error) {
	res, err := s.db.Exec(`DELETE FROM lookups`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Prune removes expired entries.
func (s *Store) Prune() (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.Exec(`DELETE FROM lookups WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Stats reports entry counts per source and the age range.
func (s *Store) Stats() (Stats, error) {
	st := Stats{BySource: make(map[string]int), Path: s.path, TTL: s.ttl.String()}
	if s.ttl <= 0 {
		st.TTL = "never"
	}

	rows, err := s.db.Query(`SELECT source, fetched_at FROM lookups`)
	if err != nil {
		return st, fmt.Errorf("reading cache stats: %w", err)
	}
	defer rows.Close()

	var oldest, newest int64
	for rows.Next() {
		var (
			source    string
			fetchedAt int64
		)
		if err := rows.Scan(&source, &fetchedAt); err != nil {
			return st, err
		}
		st.Entries++
		st.BySource[source]++
		if s.expired(fetchedAt) {
			st.Expired++
		}
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		if fetchedAt > newest {
			newest = fetchedAt
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	if st.Entries > 0 {
		o, n := time.Unix(oldest, 0).UTC(), time.Unix(newest, 0).UTC()
		st.Oldest, st.Newest = &o, &n
	}
	return st, nil
}

func (s *Store) expired(fetchedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl
}
