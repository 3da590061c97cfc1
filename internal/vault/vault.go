// Package vault writes reference notes into the notes folder of a vault.
package vault

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/matsen/bibref/internal/markdown"
	"github.com/matsen/bibref/internal/reference"
	"gopkg.in/yaml.v3"
)

//go:embed note.md.tmpl
var defaultTemplate string

var (
	// ErrNoteExists is returned by WriteNote when the note is already there.
	ErrNoteExists = errors.New("note already exists")
	// ErrNoteNotFound is returned by AppendBlock for a missing note.
	ErrNoteNotFound = errors.New("note not found")
)

// Frontmatter is the YAML header of a reference note.
type Frontmatter struct {
	Title   string   `yaml:"title"`
	Authors []string `yaml:"authors,omitempty"`
	Year    int      `yaml:"year,omitempty"`
	DOI     string   `yaml:"doi,omitempty"`
	ArXiv   string   `yaml:"arxiv,omitempty"`
	CiteKey string   `yaml:"citekey"`
	Tags    []string `yaml:"tags,omitempty"`
}

// NoteData is what note templates see.
type NoteData struct {
	Reference reference.Reference
	CiteKey   string
	Title     string
	Authors   []string
	Year      int
	Venue     string
	URL       string
	Abstract  string
	BibTeX    string
}

// Vault is a notes folder inside a vault root.
type Vault struct {
	Root        string
	NotesFolder string
	tmpl        *template.Template
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"fence": markdown.Fence,
}

// New returns a Vault writing notes to root/notesFolder. templatePath, when
// set, is a text/template file relative to root that replaces the built-in
// note body.
func New(root, notesFolder, templatePath string) (*Vault, error) {
	body := defaultTemplate
	name := "note"
	if templatePath != "" {
		if !filepath.IsAbs(templatePath) {
			templatePath = filepath.Join(root, templatePath)
		}
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("reading note template: %w", err)
		}
		body = string(data)
		name = filepath.Base(templatePath)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing note template: %w", err)
	}

	return &Vault{Root: root, NotesFolder: notesFolder, tmpl: tmpl}, nil
}

// FolderPath returns the absolute notes folder.
func (v *Vault) FolderPath() string {
	return filepath.Join(v.Root, v.NotesFolder)
}

// EnsureFolder creates the notes folder if needed.
func (v *Vault) EnsureFolder() error {
	if err := os.MkdirAll(v.FolderPath(), 0755); err != nil {
		return fmt.Errorf("creating notes folder: %w", err)
	}
	return nil
}

// NotePath returns where the note for a cite key lives.
func (v *Vault) NotePath(citeKey string) string {
	return filepath.Join(v.FolderPath(), SanitizeFileName(citeKey)+".md")
}

// WriteNote renders and writes the note for ref. It returns the note path.
// An existing note is left alone unless overwrite is set.
func (v *Vault) WriteNote(ref reference.Reference, bibtex string, overwrite bool) (string, error) {
	path := v.NotePath(ref.ID)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrNoteExists, path)
		}
	}

	content, err := v.Render(ref, bibtex)
	if err != nil {
		return "", err
	}

	if err := v.EnsureFolder(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("writing note: %w", err)
	}
	return path, nil
}

// Render builds the full note: frontmatter followed by the template body.
func (v *Vault) Render(ref reference.Reference, bibtex string) ([]byte, error) {
	fm, err := yaml.Marshal(NewFrontmatter(ref))
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if err := v.tmpl.Execute(&buf, newNoteData(ref, bibtex)); err != nil {
		return nil, fmt.Errorf("executing note template: %w", err)
	}
	return buf.Bytes(), nil
}

// NewFrontmatter derives the note header from a reference.
func NewFrontmatter(ref reference.Reference) Frontmatter {
	tags := []string{"reference"}
	if ref.Type != "" {
		tags = append(tags, ref.Type)
	}
	return Frontmatter{
		Title:   ref.Title,
		Authors: authorNames(ref.Authors),
		Year:    ref.Published.Year,
		DOI:     ref.DOI,
		ArXiv:   ref.ArXivID,
		CiteKey: ref.ID,
		Tags:    tags,
	}
}

func newNoteData(ref reference.Reference, bibtex string) NoteData {
	return NoteData{
		Reference: ref,
		CiteKey:   ref.ID,
		Title:     ref.Title,
		Authors:   authorNames(ref.Authors),
		Year:      ref.Published.Year,
		Venue:     ref.Venue,
		URL:       ref.URL,
		Abstract:  ref.Abstract,
		BibTeX:    bibtex,
	}
}

func authorNames(authors []reference.Author) []string {
	var names []string
	for _, a := range authors {
		names = append(names, a.Full())
	}
	return names
}

// ParseFrontmatter splits a note into its YAML header and body. A note
// without a header returns a zero Frontmatter and the full text as body.
func ParseFrontmatter(data []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return fm, data, nil
	}

	rest := data[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			end = len(rest) - len("\n---")
		} else {
			return fm, data, nil
		}
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, data, fmt.Errorf("parsing frontmatter: %w", err)
	}

	body := rest[end+1:]
	body = bytes.TrimPrefix(body, []byte("---\n"))
	body = bytes.TrimPrefix(body, []byte("---"))
	return fm, bytes.TrimLeft(body, "\n"), nil
}

// AppendBlock adds a bibtex fence to the end of an existing note.
func AppendBlock(notePath, bibtex string) error {
	data, err := os.ReadFile(notePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoteNotFound, notePath)
		}
		return fmt.Errorf("reading note: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 {
		if !bytes.HasSuffix(data, []byte("\n")) {
			buf.WriteByte('\n')
		}
		if !bytes.HasSuffix(data, []byte("\n\n")) {
			buf.WriteByte('\n')
		}
	}
	buf.WriteString(markdown.Fence(bibtex))

	if err := os.WriteFile(notePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing note: %w", err)
	}
	return nil
}

// SanitizeFileName replaces characters that are unsafe in file names.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "untitled"
	}
	return out
}
