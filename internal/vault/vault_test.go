package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibref/internal/reference"
)

var testRef = reference.Reference{
	ID:      "Vaswani2017-aa",
	Type:    reference.TypeMisc,
	ArXivID: "1706.03762",
	Title:   "Attention Is All You Need",
	Authors: []reference.Author{
		{First: "Ashish", Last: "Vaswani"},
		{First: "Noam", Last: "Shazeer"},
	},
	Venue:     "arXiv",
	Published: reference.PublicationDate{Year: 2017},
	URL:       "https://arxiv.org/abs/1706.03762",
}

const testBib = "@misc{Vaswani2017-aa,\n  title = {Attention Is All You Need},\n}\n"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(t.TempDir(), "references", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func TestRender_DefaultTemplate(t *testing.T) {
	v := newTestVault(t)

	out, err := v.Render(testRef, testBib)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `---
title: Attention Is All You Need
authors:
    - Ashish Vaswani
    - Noam Shazeer
year: 2017
arxiv: "1706.03762"
citekey: Vaswani2017-aa
tags:
    - reference
    - misc
---

# Attention Is All You Need

Ashish Vaswani, Noam Shazeer (2017). *arXiv*

<https://arxiv.org/abs/1706.03762>

## BibTeX

` + "```bibtex\n" + strings.TrimSuffix(testBib, "\n") + "\n```\n" + `
## Notes

`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_RoundTripsFrontmatter(t *testing.T) {
	v := newTestVault(t)
	out, err := v.Render(testRef, testBib)
	if err != nil {
		t.Fatal(err)
	}

	fm, body, err := ParseFrontmatter(out)
	if err != nil {
		t.Fatalf("ParseFrontmatter() error = %v", err)
	}
	if diff := cmp.Diff(NewFrontmatter(testRef), fm); diff != "" {
		t.Errorf("frontmatter mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(string(body), "# Attention Is All You Need\n") {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatter_NoHeader(t *testing.T) {
	fm, body, err := ParseFrontmatter([]byte("# Plain\n"))
	if err != nil {
		t.Fatal(err)
	}
	if fm.CiteKey != "" || string(body) != "# Plain\n" {
		t.Errorf("ParseFrontmatter() = %+v, %q", fm, body)
	}
}

func TestNew_CustomTemplate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "tmpl.md"), []byte("{{.CiteKey}}|{{.Year}}|{{join .Authors \"; \"}}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := New(root, "notes", "tmpl.md")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := v.Render(testRef, testBib)
	if err != nil {
		t.Fatal(err)
	}
	_, body, _ := ParseFrontmatter(out)
	if got := string(body); got != "Vaswani2017-aa|2017|Ashish Vaswani; Noam Shazeer\n" {
		t.Errorf("custom body = %q", got)
	}
}

func TestNew_BadTemplate(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "bad.md"), []byte("{{.Nope"), 0644)

	if _, err := New(root, "notes", "bad.md"); err == nil {
		t.Error("New() should fail on an unparsable template")
	}
	if _, err := New(root, "notes", "missing.md"); err == nil {
		t.Error("New() should fail on a missing template")
	}
}

func TestWriteNote(t *testing.T) {
	v := newTestVault(t)

	path, err := v.WriteNote(testRef, testBib, false)
	if err != nil {
		t.Fatalf("WriteNote() error = %v", err)
	}
	if want := filepath.Join(v.Root, "references", "Vaswani2017-aa.md"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("note not written: %v", err)
	}

	if _, err := v.WriteNote(testRef, testBib, false); !errors.Is(err, ErrNoteExists) {
		t.Errorf("second WriteNote() error = %v, want ErrNoteExists", err)
	}

	changed := testRef
	changed.Title = "Changed"
	if _, err := v.WriteNote(changed, testBib, true); err != nil {
		t.Fatalf("WriteNote(overwrite) error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# Changed") {
		t.Error("overwrite did not replace the note")
	}
}

func TestAppendBlock(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"no trailing newline", "# Note\ntext", "# Note\ntext\n\n```bibtex\n@misc{K,}\n```\n"},
		{"one newline", "# Note\n", "# Note\n\n```bibtex\n@misc{K,}\n```\n"},
		{"blank line", "# Note\n\n", "# Note\n\n```bibtex\n@misc{K,}\n```\n"},
		{"empty", "", "```bibtex\n@misc{K,}\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "note.md")
			if err := os.WriteFile(path, []byte(tt.existing), 0644); err != nil {
				t.Fatal(err)
			}
			if err := AppendBlock(path, "@misc{K,}\n"); err != nil {
				t.Fatalf("AppendBlock() error = %v", err)
			}
			got, _ := os.ReadFile(path)
			if string(got) != tt.want {
				t.Errorf("AppendBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendBlock_Missing(t *testing.T) {
	err := AppendBlock(filepath.Join(t.TempDir(), "nope.md"), "@misc{K,}")
	if !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("AppendBlock() error = %v, want ErrNoteNotFound", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Smith2020-ab", "Smith2020-ab"},
		{"a/b:c", "a_b_c"},
		{"  spaced  ", "spaced"},
		{"..", "untitled"},
		{"", "untitled"},
		{`q?"<>|*`, "q______"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
