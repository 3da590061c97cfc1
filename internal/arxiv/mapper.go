package arxiv

import (
	"strings"
	"time"

	"github.com/matsen/bibref/internal/reference"
)

// MapToReference converts an Atom entry to a Reference.
// The citation key (ID) is left empty; callers assign it.
func MapToReference(e Entry) reference.Reference {
	id, version := e.PaperID()

	ref := reference.Reference{
		Type:         reference.TypeMisc,
		ArXivID:      id,
		ArXivVersion: version,
		DOI:          strings.TrimSpace(e.DOI),
		Title:        collapseSpace(e.Title),
		Abstract:     collapseSpace(e.Summary),
		Venue:        "arXiv",
		Authors:      mapAuthors(e.Authors),
		PrimaryClass: e.PrimaryCategory.Term,
		URL:          "https://arxiv.org/abs/" + id,
		Source: reference.ImportSource{
			Type: reference.SourceArXiv,
			ID:   id + version,
		},
	}

	if journal := collapseSpace(e.JournalRef); journal != "" {
		ref.Venue = journal
	}
	if e.JournalRef != "" || ref.DOI != "" {
		ref.Type = reference.TypeArticle
	}

	for _, c := range e.Categories {
		if c.Term != "" {
			ref.Keywords = append(ref.Keywords, c.Term)
		}
	}
	if ref.PrimaryClass == "" && len(ref.Keywords) > 0 {
		ref.PrimaryClass = ref.Keywords[0]
	}

	ref.Published = parsePublished(e.Published)

	return ref
}

// mapAuthors converts Atom authors to Reference authors.
func mapAuthors(authors []Author) []reference.Author {
	result := make([]reference.Author, 0, len(authors))
	for _, a := range authors {
		parsed := reference.ParseName(a.Name)
		if parsed.Last == "" {
			continue
		}
		result = append(result, parsed)
	}
	return result
}

// parsePublished parses the RFC3339 timestamp of the first version.
func parsePublished(s string) reference.PublicationDate {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return reference.PublicationDate{}
	}
	return reference.PublicationDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// collapseSpace joins runs of whitespace (including the line breaks arXiv
// inserts into titles and abstracts) into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
