package crossref

import (
	"html"
	"regexp"
	"strings"

	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/reference"
)

var jatsTagPattern = regexp.MustCompile(`<[^>]+>`)

// entryTypes maps Crossref work types to BibTeX entry types.
var entryTypes = map[string]string{
	"journal-article":     reference.TypeArticle,
	"proceedings-article": reference.TypeInProceedings,
	"book-chapter":        reference.TypeInCollection,
	"book-part":           reference.TypeInCollection,
	"book-section":        reference.TypeInCollection,
	"book":                reference.TypeBook,
	"monograph":           reference.TypeBook,
	"edited-book":         reference.TypeBook,
	"reference-book":      reference.TypeBook,
	"proceedings":         reference.TypeProceedings,
	"posted-content":      reference.TypeMisc,
	"report":              reference.TypeTechReport,
	"dissertation":        reference.TypePhDThesis,
}

// MapToReference converts a Crossref work to a Reference.
// The citation key (ID) is left empty; callers assign it.
func MapToReference(w Work) reference.Reference {
	doi := ident.NormalizeDOI(w.DOI)

	ref := reference.Reference{
		Type:      mapType(w.Type),
		DOI:       doi,
		Title:     mapTitle(w),
		Authors:   mapAuthors(w.Author),
		Abstract:  StripJATS(w.Abstract),
		Venue:     first(w.ContainerTitle),
		Published: mapDate(w),
		Volume:    w.Volume,
		Number:    w.Issue,
		Pages:     w.Page,
		Publisher: w.Publisher,
		ISBN:      first(w.ISBN),
		ISSN:      first(w.ISSN),
		URL:       w.URL,
		Keywords:  w.Subject,
		Source: reference.ImportSource{
			Type: reference.SourceCrossref,
			ID:   doi,
		},
	}

	if ref.Venue == "" && w.Event != nil && ref.Type == reference.TypeInProceedings {
		ref.Venue = w.Event.Name
	}
	if ref.URL == "" && doi != "" {
		ref.URL = "https://doi.org/" + doi
	}

	return ref
}

func mapType(t string) string {
	if bt, ok := entryTypes[t]; ok {
		return bt
	}
	return reference.TypeMisc
}

func mapTitle(w Work) string {
	title := collapseSpace(html.UnescapeString(first(w.Title)))
	if sub := collapseSpace(html.UnescapeString(first(w.Subtitle))); sub != "" && title != "" {
		title += ": " + sub
	}
	return title
}

// mapAuthors converts Crossref contributors. Organisations carry only Name.
func mapAuthors(contribs []Contributor) []reference.Author {
	result := make([]reference.Author, 0, len(contribs))
	for _, c := range contribs {
		var a reference.Author
		switch {
		case c.Family != "":
			a = reference.Author{First: strings.TrimSpace(c.Given), Last: strings.TrimSpace(c.Family)}
		case c.Name != "":
			a = reference.Author{Last: strings.TrimSpace(c.Name)}
		default:
			continue
		}
		a.ORCID = trimORCID(c.ORCID)
		result = append(result, a)
	}
	return result
}

// mapDate picks the first populated date: issued, then print, online and
// deposit dates.
func mapDate(w Work) reference.PublicationDate {
	for _, d := range []DateParts{w.Issued, w.PublishedPrint, w.PublishedOnline, w.Created} {
		year, month, day := d.Parts()
		if year > 0 {
			return reference.PublicationDate{Year: year, Month: month, Day: day}
		}
	}
	return reference.PublicationDate{}
}

// StripJATS removes JATS XML markup from a Crossref abstract.
func StripJATS(s string) string {
	if s == "" {
		return ""
	}
	text := jatsTagPattern.ReplaceAllString(s, " ")
	text = collapseSpace(html.UnescapeString(text))
	return strings.TrimPrefix(text, "Abstract ")
}

func trimORCID(s string) string {
	s = strings.TrimPrefix(s, "https://orcid.org/")
	return strings.TrimPrefix(s, "http://orcid.org/")
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.TrimSpace(s[0])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
