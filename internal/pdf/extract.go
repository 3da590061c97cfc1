// Package pdf pulls citable identifiers out of PDF files.
package pdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/matsen/bibref/internal/ident"
)

// DefaultPages is how many leading pages are scanned. Identifiers are almost
// always on the first page; later pages mostly add noise from the bibliography.
const DefaultPages = 3

// Result is what a PDF scan found.
type Result struct {
	Identifiers []ident.Identifier `json:"identifiers"`
	Title       string             `json:"title,omitempty"` // best-effort guess from page 1
}

// ExtractIdentifiers scans the first DefaultPages pages of a PDF for DOIs and
// arXiv ids. A PDF with no identifiers is not an error.
func ExtractIdentifiers(path string) (Result, error) {
	text, err := ExtractText(path, DefaultPages)
	if err != nil {
		return Result{}, err
	}
	return Scan(text), nil
}

// Scan inspects already extracted text.
func Scan(text string) Result {
	return Result{
		Identifiers: ident.ExtractAll(text),
		Title:       guessTitle(text),
	}
}

// ExtractText extracts text from the first maxPages pages of a PDF.
// maxPages <= 0 means all pages.
func ExtractText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // Unreadable page; keep going
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// guessTitle returns the first substantial line that doesn't look like a
// running header.
func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) && len(ident.ExtractAll(line)) == 0 {
			return line
		}
	}
	return ""
}

// isHeaderLine checks if a line is likely a header/footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "preprint"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
