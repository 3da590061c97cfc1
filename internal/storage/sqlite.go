package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/bibref/internal/reference"
	_ "modernc.org/sqlite"
)

// DB is the SQLite search index over refs.jsonl. It is derived data and can
// be rebuilt at any time with RebuildFromJSONL.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS refs (
			id TEXT PRIMARY KEY,
			doi TEXT,
			arxiv_id TEXT,
			pub_year INTEGER NOT NULL,
			ref_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_refs_doi ON refs(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			id,
			title,
			abstract,
			authors_text,
			venue,
			keywords
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the index and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	refs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM refs"); err != nil {
		return 0, fmt.Errorf("clearing refs table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM refs_fts"); err != nil {
		return 0, fmt.Errorf("clearing refs_fts table: %w", err)
	}

	refsStmt, err := tx.Prepare(`INSERT OR REPLACE INTO refs (id, doi, arxiv_id, pub_year, ref_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing refs insert: %w", err)
	}
	defer refsStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO refs_fts (id, title, abstract, authors_text, venue, keywords) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, ref := range refs {
		data, err := json.Marshal(ref)
		if err != nil {
			return 0, fmt.Errorf("encoding ref %s: %w", ref.ID, err)
		}

		if _, err := refsStmt.Exec(ref.ID, nullableString(ref.DOI), nullableString(ref.ArXivID), ref.Published.Year, string(data)); err != nil {
			return 0, fmt.Errorf("inserting ref %s: %w", ref.ID, err)
		}

		_, err = ftsStmt.Exec(ref.ID, ref.Title, ref.Abstract, formatAuthorsText(ref.Authors),
			ref.Venue, strings.Join(ref.Keywords, " "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", ref.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(refs), nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []reference.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Full())
	}
	return strings.Join(names, ", ")
}

// GetByID retrieves a reference by its ID. Returns nil, nil when absent.
func (d *DB) GetByID(id string) (*reference.Reference, error) {
	row := d.db.QueryRow(`SELECT ref_json FROM refs WHERE id = ?`, id)
	ref, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

// Search performs a full-text search, best matches first.
// A query that is only a year (e.g. "2018") matches pub_year instead.
func (d *DB) Search(query string, limit int) ([]reference.Reference, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if year, err := strconv.Atoi(query); err == nil && year > 999 && year < 10000 {
		rows, err := d.db.Query(`SELECT ref_json FROM refs WHERE pub_year = ? ORDER BY id LIMIT ?`, year, limit)
		if err != nil {
			return nil, fmt.Errorf("searching by year: %w", err)
		}
		defer rows.Close()
		return scanReferences(rows)
	}

	rows, err := d.db.Query(`
		SELECT r.ref_json
		FROM refs_fts JOIN refs r ON r.id = refs_fts.id
		WHERE refs_fts MATCH ?
		ORDER BY bm25(refs_fts)
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// Count returns the total number of indexed references.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanReference(s scanner) (*reference.Reference, error) {
	var data string
	if err := s.Scan(&data); err != nil {
		return nil, err
	}
	var ref reference.Reference
	if err := json.Unmarshal([]byte(data), &ref); err != nil {
		return nil, fmt.Errorf("decoding indexed reference: %w", err)
	}
	return &ref, nil
}

func scanReferences(rows *sql.Rows) ([]reference.Reference, error) {
	var refs []reference.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, rows.Err()
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns free text into an FTS5 query: each term is quoted
// and prefix-matched, and all terms must match.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, part := range strings.Fields(query) {
		escaped := strings.ReplaceAll(part, `"`, `""`)
		terms = append(terms, `"`+escaped+`"*`)
	}
	return strings.Join(terms, " ")
}
