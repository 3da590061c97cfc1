// Package export formats references as BibTeX and maintains .bib files.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/bibref/internal/reference"
)

// Options controls BibTeX formatting.
type Options struct {
	// CrossRef emits a parent @proceedings/@book entry for chapters and
	// conference papers and links the child to it with a crossref field.
	CrossRef bool
	// MonthNames writes months as BibTeX macros (jan..dec) instead of numbers.
	MonthNames bool
	// IncludeAbstract adds the abstract field.
	IncludeAbstract bool
	// KeyPattern is the cite key pattern used when a reference has no ID.
	KeyPattern string
}

var monthMacros = [...]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var pageRangePattern = regexp.MustCompile(`\s*(?:-+|\x{2013}|\x{2014})\s*`)

// ToBibTeX converts a reference to BibTeX format. With Options.CrossRef the
// linked parent entry follows the child.
func ToBibTeX(ref reference.Reference, opts Options) string {
	entries := BuildEntries(ref, opts)
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Format()
	}
	return strings.Join(parts, "\n")
}

// ToBibTeXList converts multiple references to BibTeX format. Shared parent
// entries are written once, after every child that references them.
func ToBibTeXList(refs []reference.Reference, opts Options) string {
	var children, parents []string
	seenParent := make(map[string]bool)

	for _, ref := range refs {
		entries := BuildEntries(ref, opts)
		children = append(children, entries[0].Format())
		for _, p := range entries[1:] {
			if seenParent[p.Key] {
				continue
			}
			seenParent[p.Key] = true
			parents = append(parents, p.Format())
		}
	}

	return strings.Join(append(children, parents...), "\n")
}

// BuildEntries returns the entry for ref, followed by its crossref parent when
// linking applies.
func BuildEntries(ref reference.Reference, opts Options) []Entry {
	entryType := determineEntryType(ref)
	key := ref.ID
	if key == "" {
		key = CiteKey(ref, opts.KeyPattern)
	}

	var parent *Entry
	if opts.CrossRef {
		parent = parentEntry(ref, entryType)
	}

	e := Entry{Type: entryType, Key: key}

	if len(ref.Authors) > 0 {
		e.add("author", formatAuthors(ref.Authors))
	}
	e.add("title", escapeLatex(ref.Title))

	if ref.Venue != "" && parent == nil {
		if field := venueField(entryType, ref); field != "" {
			e.add(field, escapeLatex(ref.Venue))
		}
	}

	if ref.Published.Year > 0 {
		e.add("year", fmt.Sprintf("%d", ref.Published.Year))
	}
	if m := ref.Published.Month; m >= 1 && m <= 12 {
		if opts.MonthNames {
			e.addBare("month", monthMacros[m-1])
		} else {
			e.add("month", fmt.Sprintf("%d", m))
		}
	}

	e.add("volume", ref.Volume)
	e.add("number", ref.Number)
	e.add("pages", formatPages(ref.Pages))
	if parent == nil {
		e.add(publisherField(entryType), escapeLatex(ref.Publisher))
	}
	e.add("doi", ref.DOI)

	if ref.ArXivID != "" {
		e.add("eprint", ref.ArXivID)
		e.add("archivePrefix", "arXiv")
		e.add("primaryClass", ref.PrimaryClass)
	}

	e.add("url", ref.URL)
	if parent == nil {
		e.add("isbn", ref.ISBN)
	}
	e.add("issn", ref.ISSN)

	if len(ref.Keywords) > 0 {
		e.add("keywords", escapeLatex(strings.Join(ref.Keywords, ", ")))
	}
	if opts.IncludeAbstract {
		e.add("abstract", escapeLatex(ref.Abstract))
	}

	if parent == nil {
		return []Entry{e}
	}
	e.add("crossref", parent.Key)
	return []Entry{e, *parent}
}

// parentEntry builds the container entry for a chapter or conference paper.
// Returns nil when the reference has nothing to link to.
func parentEntry(ref reference.Reference, entryType string) *Entry {
	var parentType string
	switch entryType {
	case reference.TypeInProceedings:
		parentType = reference.TypeProceedings
	case reference.TypeInCollection:
		parentType = reference.TypeBook
	default:
		return nil
	}
	if strings.TrimSpace(ref.Venue) == "" {
		return nil
	}

	p := &Entry{Type: parentType, Key: ParentKey(ref)}
	venue := escapeLatex(ref.Venue)
	p.add("title", venue)
	p.add("booktitle", venue)
	if ref.Published.Year > 0 {
		p.add("year", fmt.Sprintf("%d", ref.Published.Year))
	}
	p.add("publisher", escapeLatex(ref.Publisher))
	p.add("isbn", ref.ISBN)
	return p
}

// determineEntryType returns the BibTeX entry type for a reference. Sources
// set Type; manual references fall back to venue heuristics.
func determineEntryType(ref reference.Reference) string {
	if ref.Type != "" {
		return ref.Type
	}

	venue := strings.ToLower(ref.Venue)

	if ref.ArXivID != "" && (venue == "" || venue == "arxiv") {
		return reference.TypeMisc
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return reference.TypeInProceedings
	}

	return reference.TypeArticle
}

// venueField names the field that carries the venue for an entry type.
func venueField(entryType string, ref reference.Reference) string {
	switch entryType {
	case reference.TypeArticle:
		return "journal"
	case reference.TypeInProceedings, reference.TypeInCollection:
		return "booktitle"
	case reference.TypeTechReport:
		return "institution"
	case reference.TypePhDThesis:
		return "school"
	case reference.TypeMisc:
		if ref.IsPreprint() {
			return ""
		}
		return "howpublished"
	}
	return ""
}

func publisherField(entryType string) string {
	if entryType == reference.TypeTechReport {
		return "address"
	}
	return "publisher"
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First".
// Single-name authors (organisations) are braced so BibTeX keeps them whole.
func formatAuthors(authors []reference.Author) string {
	var formatted []string
	for _, a := range authors {
		switch {
		case a.First != "":
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.Last), escapeLatex(a.First)))
		case strings.Contains(a.Last, " "):
			formatted = append(formatted, "{"+escapeLatex(a.Last)+"}")
		default:
			formatted = append(formatted, escapeLatex(a.Last))
		}
	}
	return strings.Join(formatted, " and ")
}

// formatPages writes page ranges with a BibTeX en-dash.
func formatPages(pages string) string {
	pages = strings.TrimSpace(pages)
	if pages == "" {
		return ""
	}
	return pageRangePattern.ReplaceAllString(pages, "--")
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	return latexReplacer.Replace(s)
}
