package storage

import (
	"path/filepath"
	"testing"

	"github.com/matsen/bibref/internal/reference"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "refs.jsonl")

	refs := []reference.Reference{
		{
			ID:       "Smith2026-ml",
			DOI:      "10.1234/smith",
			Title:    "Machine Learning in Biology",
			Abstract: "This paper discusses machine learning applications.",
			Venue:    "Nature",
			Authors: []reference.Author{
				{First: "John", Last: "Smith"},
				{First: "Jane", Last: "Doe"},
			},
			Published: reference.PublicationDate{Year: 2026, Month: 3},
		},
		{
			ID:        "Jones2025-dl",
			ArXivID:   "2501.00001",
			Title:     "Deep Learning for Protein Structure",
			Abstract:  "A study of deep learning methods for proteins.",
			Venue:     "arXiv",
			Authors:   []reference.Author{{First: "Alice", Last: "Jones"}},
			Published: reference.PublicationDate{Year: 2025},
			Keywords:  []string{"q-bio.BM"},
		},
		{
			ID:        "Brown2024-sm",
			Title:     "Statistical Methods in Genomics",
			Venue:     "PLOS Computational Biology",
			Authors:   []reference.Author{{First: "Bob", Last: "Brown"}},
			Published: reference.PublicationDate{Year: 2024},
		},
	}

	if err := WriteAll(jsonlPath, refs); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "refs.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	if n != len(refs) {
		t.Fatalf("RebuildFromJSONL() = %d, want %d", n, len(refs))
	}

	return db
}

func TestDB_Count(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestDB_GetByID(t *testing.T) {
	db := setupTestDB(t)

	ref, err := db.GetByID("Jones2025-dl")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ref == nil || ref.ArXivID != "2501.00001" || ref.Title != "Deep Learning for Protein Structure" {
		t.Errorf("GetByID() = %+v", ref)
	}

	missing, err := db.GetByID("Nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestDB_Search(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"title word", "genomics", []string{"Brown2024-sm"}},
		{"prefix", "protei", []string{"Jones2025-dl"}},
		{"author", "smith", []string{"Smith2026-ml"}},
		{"all terms", "deep proteins", []string{"Jones2025-dl"}},
		{"keyword", "q-bio.BM", []string{"Jones2025-dl"}},
		{"year", "2024", []string{"Brown2024-sm"}},
		{"no match", "quantum", nil},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			var got []string
			for _, r := range refs {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.wantIDs)
				}
			}
		})
	}
}

func TestDB_RebuildReplaces(t *testing.T) {
	db := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "refs.jsonl")
	if err := WriteAll(path, []reference.Reference{{ID: "Only", Title: "Only One"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildFromJSONL(path); err != nil {
		t.Fatal(err)
	}

	count, _ := db.Count()
	if count != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", count)
	}
	refs, _ := db.Search("machine", 10)
	if len(refs) != 0 {
		t.Errorf("stale FTS rows after rebuild: %+v", refs)
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"deep learning", `"deep"* "learning"*`},
		{`say "hi"`, `"say"* """hi"""*`},
		{"q-bio.BM", `"q-bio.BM"*`},
	}

	for _, tt := range tests {
		if got := prepareFTSQuery(tt.in); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
