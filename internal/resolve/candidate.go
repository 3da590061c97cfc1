package resolve

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matsen/bibref/internal/reference"
)

const maxLabelTitle = 80

// Candidate is one possible match for a query.
type Candidate struct {
	Reference reference.Reference `json:"reference"`
	Source    string              `json:"source"`
	Score     float64             `json:"score"`
}

// Label returns a one-line summary for selection lists, e.g.
// "Vaswani et al. (2017) Attention Is All You Need. arXiv [arxiv]".
func (c Candidate) Label() string {
	ref := c.Reference

	year := "n.d."
	if ref.Published.Year > 0 {
		year = fmt.Sprintf("%d", ref.Published.Year)
	}

	var b strings.Builder
	if authors := shortAuthors(ref.Authors); authors != "" {
		b.WriteString(authors + " ")
	}
	b.WriteString("(" + year + ") ")
	b.WriteString(truncate(ref.Title, maxLabelTitle))
	if ref.Venue != "" {
		b.WriteString(". " + ref.Venue)
	}
	if c.Source != "" {
		b.WriteString(" [" + c.Source + "]")
	}
	return b.String()
}

func shortAuthors(authors []reference.Author) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0].Last
	case 2:
		return authors[0].Last + " & " + authors[1].Last
	default:
		return authors[0].Last + " et al."
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
