package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleBib = `% library
@string{nips = "NeurIPS"}

@article{Smith2020-ab,
  author = {Smith, John},
  title = {A {Nested} Title},
  year = 2020,
  month = mar,
  doi = {10.1234/ABC},
}

@misc{Doe2021,
  title = "Quoted " # nips,
  note = {contact me@example.org}
}
`

func TestParseEntries(t *testing.T) {
	entries, err := ParseEntries(sampleBib)
	if err != nil {
		t.Fatalf("ParseEntries() error = %v", err)
	}

	want := []Entry{
		{
			Type: "article",
			Key:  "Smith2020-ab",
			Line: 4,
			Fields: []Field{
				{Name: "author", Value: "Smith, John"},
				{Name: "title", Value: "A {Nested} Title"},
				{Name: "year", Value: "2020", Bare: true},
				{Name: "month", Value: "mar", Bare: true},
				{Name: "doi", Value: "10.1234/ABC"},
			},
		},
		{
			Type: "misc",
			Key:  "Doe2021",
			Line: 12,
			Fields: []Field{
				{Name: "title", Value: "Quoted nips"},
				{Name: "note", Value: "contact me@example.org"},
			},
		},
	}

	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ParseEntries() mismatch (-want +got):\n%s", diff)
	}
	if got := entries[0].Get("DOI"); got != "10.1234/ABC" {
		t.Errorf("Get(DOI) = %q", got)
	}
}

func TestParseEntries_RoundTripsFormat(t *testing.T) {
	e := Entry{Type: "article", Key: "K1", Fields: []Field{
		{Name: "title", Value: `Braces \{ and \}`},
		{Name: "month", Value: "jan", Bare: true},
	}}

	got, err := ParseEntries(e.Format())
	if err != nil {
		t.Fatalf("ParseEntries() error = %v", err)
	}
	e.Line = 1
	if diff := cmp.Diff([]Entry{e}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEntries_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unterminated", "@article{Key,\n  title = {Open"},
		{"missing key", "@article{,\n title = {x}}"},
		{"missing equals", "@article{Key, title {x}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntries(tt.text)
			if !errors.Is(err, ErrMalformedEntry) {
				t.Errorf("ParseEntries() error = %v, want ErrMalformedEntry", err)
			}
		})
	}
}

func TestParseEntries_KeepsEarlierEntries(t *testing.T) {
	text := "@misc{Good, title = {ok}}\n@misc{Bad, title = {"
	entries, err := ParseEntries(text)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(entries) != 1 || entries[0].Key != "Good" {
		t.Errorf("entries = %+v, want the first entry", entries)
	}
}

func TestParseBibTeXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	if err := os.WriteFile(path, []byte(sampleBib), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}

	if !idx.Keys["Smith2020-ab"] || !idx.Keys["Doe2021"] {
		t.Errorf("Keys = %v", idx.Keys)
	}
	if idx.DOIs["10.1234/abc"] != "Smith2020-ab" {
		t.Errorf("DOIs = %v", idx.DOIs)
	}

	tests := []struct {
		name string
		key  string
		doi  string
		want bool
	}{
		{"doi match with new key", "Other", "https://doi.org/10.1234/abc", true},
		{"key match without doi", "Doe2021", "", true},
		{"new entry", "New2022", "10.9/new", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.HasEntry(tt.key, tt.doi); got != tt.want {
				t.Errorf("HasEntry(%q, %q) = %v, want %v", tt.key, tt.doi, got, tt.want)
			}
		})
	}
}

func TestParseBibTeXFile_Missing(t *testing.T) {
	idx, err := ParseBibTeXFile(filepath.Join(t.TempDir(), "nope.bib"))
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}
	if len(idx.Keys) != 0 {
		t.Errorf("expected empty index, got %v", idx.Keys)
	}
}

func TestAppendToBibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")

	for _, key := range []string{"A2020", "B2021"} {
		e := Entry{Type: "misc", Key: key, Fields: []Field{{Name: "title", Value: key}}}
		if err := AppendToBibFile(path, e.Format()); err != nil {
			t.Fatalf("AppendToBibFile() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ParseEntries(string(data))
	if err != nil {
		t.Fatalf("ParseEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
	idx, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !idx.HasEntry("B2021", "") {
		t.Error("appended key should be indexed")
	}
}
