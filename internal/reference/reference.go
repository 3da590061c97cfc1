// Package reference defines the core domain types for bibliography references.
package reference

// Entry types used by the formatter. Values match BibTeX entry type names.
const (
	TypeArticle       = "article"
	TypeInProceedings = "inproceedings"
	TypeInCollection  = "incollection"
	TypeProceedings   = "proceedings"
	TypeBook          = "book"
	TypeTechReport    = "techreport"
	TypePhDThesis     = "phdthesis"
	TypeMisc          = "misc"
)

// Source types recorded in ImportSource.Type.
const (
	SourceArXiv    = "arxiv"
	SourceCrossref = "crossref"
	SourceManual   = "manual"
)

// Reference represents a resolved bibliography entry.
type Reference struct {
	// Identity
	ID      string `json:"id"`   // Citation key
	Type    string `json:"type"` // BibTeX entry type (article, inproceedings, misc, ...)
	DOI     string `json:"doi,omitempty"`
	ArXivID string `json:"arxiv_id,omitempty"` // Without version suffix

	// Metadata
	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Venue    string   `json:"venue,omitempty"` // Journal, proceedings or book title

	// Publication Date
	Published PublicationDate `json:"published"`

	// Bibliographic detail
	Volume    string `json:"volume,omitempty"`
	Number    string `json:"number,omitempty"`
	Pages     string `json:"pages,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	ISSN      string `json:"issn,omitempty"`
	URL       string `json:"url,omitempty"`

	// arXiv specifics
	ArXivVersion string `json:"arxiv_version,omitempty"` // e.g. "v2"
	PrimaryClass string `json:"primary_class,omitempty"` // e.g. "cs.LG"

	Keywords []string `json:"keywords,omitempty"`

	// Import Tracking
	Source ImportSource `json:"source"`
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// ImportSource tracks where a reference was resolved from.
type ImportSource struct {
	Type string `json:"type"` // arxiv, crossref, manual
	ID   string `json:"id"`   // Identifier used at the source
}

// FirstAuthorLast returns the last name of the first author, or "" when there are none.
func (r Reference) FirstAuthorLast() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0].Last
}

// IsPreprint reports whether the reference is an arXiv preprint without a journal venue.
func (r Reference) IsPreprint() bool {
	return r.ArXivID != "" && (r.Venue == "" || r.Venue == "arXiv")
}
