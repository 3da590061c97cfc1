package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibref/internal/reference"
)

func TestReadAll_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	refs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("ReadAll() returned %d refs, want 0", len(refs))
	}
}

func TestReadAll_NonExistentFile(t *testing.T) {
	refs, err := ReadAll("/nonexistent/path/refs.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(refs) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", refs)
	}
}

func TestReadAll_SingleRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")

	content := `{"id":"Smith2026","type":"article","doi":"10.1234/test","title":"Test Paper","authors":[{"first":"John","last":"Smith"}],"published":{"year":2026},"source":{"type":"crossref","id":"10.1234/test"}}`
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	refs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("ReadAll() returned %d refs, want 1", len(refs))
	}

	ref := refs[0]
	if ref.ID != "Smith2026" || ref.DOI != "10.1234/test" || ref.Type != "article" {
		t.Errorf("ReadAll() = %+v", ref)
	}
	if len(ref.Authors) != 1 || ref.Authors[0].Last != "Smith" {
		t.Errorf("Authors = %+v", ref.Authors)
	}
}

func TestReadAll_SkipsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	content := "{\"id\":\"A\"}\n\n{\"id\":\"B\"}\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	refs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("ReadAll() returned %d refs, want 2", len(refs))
	}
}

func TestReadAll_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	if err := os.WriteFile(path, []byte("{\"id\":\"A\"}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll() should fail on invalid JSON")
	}
}

func TestAppend_MultipleRefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")

	for _, id := range []string{"First", "Second", "Third"} {
		if err := Append(path, reference.Reference{ID: id, Title: id}); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	refs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(refs) != 3 || refs[2].ID != "Third" {
		t.Errorf("ReadAll() = %+v", refs)
	}
}

func TestWriteAll_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")

	if err := WriteAll(path, []reference.Reference{{ID: "Old1"}, {ID: "Old2"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteAll(path, []reference.Reference{{ID: "New"}}); err != nil {
		t.Fatal(err)
	}

	refs, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].ID != "New" {
		t.Errorf("ReadAll() = %+v, want only New", refs)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestFindByDOI(t *testing.T) {
	refs := []reference.Reference{
		{ID: "A", DOI: "10.1234/AbC"},
		{ID: "B"},
		{ID: "C", DOI: "10.5678/xyz"},
	}

	tests := []struct {
		doi     string
		wantIdx int
		wantOK  bool
	}{
		{"10.1234/abc", 0, true},
		{"https://doi.org/10.5678/XYZ", 2, true},
		{"10.0000/none", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.doi, func(t *testing.T) {
			idx, ok := FindByDOI(refs, tt.doi)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("FindByDOI(%q) = (%d, %v), want (%d, %v)", tt.doi, idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestFindByArXivID(t *testing.T) {
	refs := []reference.Reference{
		{ID: "A", ArXivID: "1706.03762"},
		{ID: "B", ArXivID: "hep-th/9901001"},
	}

	if idx, ok := FindByArXivID(refs, "HEP-TH/9901001"); !ok || idx != 1 {
		t.Errorf("FindByArXivID() = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := FindByArXivID(refs, ""); ok {
		t.Error("FindByArXivID(\"\") should not match")
	}
}

func TestFindDuplicate(t *testing.T) {
	refs := []reference.Reference{
		{ID: "A", DOI: "10.1/a"},
		{ID: "B", ArXivID: "2101.00001"},
	}

	tests := []struct {
		name    string
		ref     reference.Reference
		wantIdx int
		wantOK  bool
	}{
		{"by doi", reference.Reference{DOI: "10.1/A"}, 0, true},
		{"by arxiv", reference.Reference{DOI: "10.9/other", ArXivID: "2101.00001"}, 1, true},
		{"new", reference.Reference{DOI: "10.9/other"}, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := FindDuplicate(refs, tt.ref)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("FindDuplicate() = (%d, %v), want (%d, %v)", idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestGenerateUniqueID(t *testing.T) {
	tests := []struct {
		name   string
		refs   []reference.Reference
		baseID string
		want   string
	}{
		{"no conflict", []reference.Reference{{ID: "Other"}}, "Smith2026", "Smith2026"},
		{"one conflict", []reference.Reference{{ID: "Smith2026"}}, "Smith2026", "Smith2026-2"},
		{"multiple conflicts", []reference.Reference{{ID: "Smith2026"}, {ID: "Smith2026-2"}, {ID: "Smith2026-3"}}, "Smith2026", "Smith2026-4"},
		{"empty refs", nil, "Smith2026", "Smith2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateUniqueID(tt.refs, tt.baseID); got != tt.want {
				t.Errorf("GenerateUniqueID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoundTrip_CompleteReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")

	original := reference.Reference{
		ID:      "Vaswani2017-aa",
		Type:    reference.TypeMisc,
		DOI:     "10.48550/arxiv.1706.03762",
		ArXivID: "1706.03762",
		Title:   "Attention Is All You Need",
		Authors: []reference.Author{
			{First: "Ashish", Last: "Vaswani", ORCID: "0000-0000-0000-0001"},
			{First: "Noam", Last: "Shazeer"},
		},
		Abstract:     "The dominant sequence transduction models...",
		Venue:        "arXiv",
		Published:    reference.PublicationDate{Year: 2017, Month: 6, Day: 12},
		ArXivVersion: "v7",
		PrimaryClass: "cs.CL",
		Keywords:     []string{"cs.CL", "cs.LG"},
		URL:          "https://arxiv.org/abs/1706.03762",
		Source:       reference.ImportSource{Type: reference.SourceArXiv, ID: "1706.03762v7"},
	}

	if err := Append(path, original); err != nil {
		t.Fatal(err)
	}
	refs, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]reference.Reference{original}, refs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIDs(t *testing.T) {
	ids := IDs([]reference.Reference{{ID: "A"}, {ID: "B"}})
	if !ids["A"] || !ids["B"] || ids["C"] {
		t.Errorf("IDs() = %v", ids)
	}
}
