package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/bibref/internal/ident"
)

// ErrMalformedEntry is returned by ParseEntries for entries it cannot read.
var ErrMalformedEntry = errors.New("malformed BibTeX entry")

// BibTeXIndex indexes existing BibTeX entries for deduplication.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// DOIs maps DOI values to citation keys
	DOIs map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// HasEntry returns true if the entry already exists (by DOI or key).
// DOI is the primary match; citation key is the fallback if no DOI.
func (idx *BibTeXIndex) HasEntry(key, doi string) bool {
	if doi != "" {
		if _, exists := idx.DOIs[ident.NormalizeDOI(doi)]; exists {
			return true
		}
	}
	return idx.Keys[key]
}

var (
	// entry start: @type{key,
	entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)
	// DOI field: doi = {value} or doi = "value"
	doiFieldRegex = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty.
// The scan is line-based so a malformed entry does not hide the rest of the file.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}

		if matches := doiFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			doi := ident.NormalizeDOI(matches[1])
			if doi != "" && currentKey != "" {
				idx.DOIs[doi] = currentKey
			}
		}
	}

	return idx, scanner.Err()
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}

// ParseEntries splits BibTeX text into entries. @comment, @string and
// @preamble blocks are skipped. Entries parsed before a malformed one are
// returned along with the error.
func ParseEntries(text string) ([]Entry, error) {
	p := &parser{src: text}
	var entries []Entry

	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return entries, nil
		}
		start := p.pos + at
		p.pos = start + 1

		typ := p.name()
		if typ == "" {
			continue
		}
		p.skipSpace()
		if p.eof() || (p.peek() != '{' && p.peek() != '(') {
			continue
		}
		closer := byte('}')
		if p.peek() == '(' {
			closer = ')'
		}
		p.pos++

		switch strings.ToLower(typ) {
		case "comment", "string", "preamble":
			p.pos = start + 1
			if err := p.skipGroup(); err != nil {
				return entries, fmt.Errorf("%w: line %d: %v", ErrMalformedEntry, lineOf(text, start), err)
			}
			continue
		}

		e, err := p.entry(typ, closer)
		if err != nil {
			return entries, fmt.Errorf("%w: line %d: %v", ErrMalformedEntry, lineOf(text, start), err)
		}
		e.Line = lineOf(text, start)
		entries = append(entries, e)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(" \t\r\n", p.peek()) >= 0 {
		p.pos++
	}
}

// name reads an entry type or field name.
func (p *parser) name() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isNameByte(c) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		strings.IndexByte("_-:.+/", c) >= 0
}

// skipGroup skips past the balanced group that starts at the next { or (.
func (p *parser) skipGroup() error {
	for !p.eof() && p.peek() != '{' && p.peek() != '(' {
		p.pos++
	}
	if p.eof() {
		return errors.New("missing opening brace")
	}
	open := p.peek()
	closeCh := byte('}')
	if open == '(' {
		closeCh = ')'
	}
	depth := 0
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
	}
	return errors.New("unterminated block")
}

func (p *parser) entry(typ string, closer byte) (Entry, error) {
	e := Entry{Type: strings.ToLower(typ)}

	p.skipSpace()
	start := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer && p.peek() != '\n' {
		p.pos++
	}
	e.Key = strings.TrimSpace(p.src[start:p.pos])
	if e.Key == "" {
		return e, errors.New("missing citation key")
	}

	for {
		p.skipSpace()
		if p.eof() {
			return e, fmt.Errorf("unterminated entry %q", e.Key)
		}
		switch p.peek() {
		case closer:
			p.pos++
			return e, nil
		case ',':
			p.pos++
			continue
		}

		name := p.name()
		if name == "" {
			return e, fmt.Errorf("entry %q: expected field name at %q", e.Key, p.context())
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return e, fmt.Errorf("entry %q: expected '=' after %s", e.Key, name)
		}
		p.pos++

		value, bare, err := p.value(closer)
		if err != nil {
			return e, fmt.Errorf("entry %q field %s: %w", e.Key, name, err)
		}
		e.Fields = append(e.Fields, Field{Name: strings.ToLower(name), Value: value, Bare: bare})
	}
}

// value reads a field value: {braced}, "quoted" or a bare token, with
// # concatenation.
func (p *parser) value(closer byte) (string, bool, error) {
	var parts []string
	bare := true

	for {
		p.skipSpace()
		if p.eof() {
			return "", false, errors.New("missing value")
		}

		switch c := p.peek(); c {
		case '{':
			s, err := p.braced()
			if err != nil {
				return "", false, err
			}
			parts = append(parts, s)
			bare = false
		case '"':
			s, err := p.quoted()
			if err != nil {
				return "", false, err
			}
			parts = append(parts, s)
			bare = false
		default:
			start := p.pos
			for !p.eof() && p.peek() != ',' && p.peek() != closer && p.peek() != '#' &&
				strings.IndexByte(" \t\r\n", p.peek()) < 0 {
				p.pos++
			}
			if p.pos == start {
				return "", false, errors.New("missing value")
			}
			parts = append(parts, p.src[start:p.pos])
		}

		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			continue
		}
		return strings.Join(parts, ""), bare && len(parts) == 1, nil
	}
}

func (p *parser) braced() (string, error) {
	depth := 0
	start := p.pos + 1
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s := p.src[start:p.pos]
				p.pos++
				return s, nil
			}
		}
	}
	return "", errors.New("unbalanced braces")
}

func (p *parser) quoted() (string, error) {
	depth := 0
	p.pos++
	start := p.pos
	for ; !p.eof(); p.pos++ {
		switch p.peek() {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				s := p.src[start:p.pos]
				p.pos++
				return s, nil
			}
		}
	}
	return "", errors.New("unterminated quoted value")
}

func (p *parser) context() string {
	end := p.pos + 20
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func lineOf(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
