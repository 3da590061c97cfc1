// Package arxiv provides a client for the arXiv Atom query API.
package arxiv

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// Feed is the Atom feed returned by the query API.
type Feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []Entry  `xml:"entry"`
}

// Entry is a single paper in an Atom feed.
type Entry struct {
	ID              string     `xml:"id"` // e.g. http://arxiv.org/abs/2106.15928v2
	Title           string     `xml:"title"`
	Summary         string     `xml:"summary"`
	Published       string     `xml:"published"` // RFC3339, first version
	Updated         string     `xml:"updated"`   // RFC3339, latest version
	Authors         []Author   `xml:"author"`
	Links           []Link     `xml:"link"`
	Categories      []Category `xml:"category"`
	PrimaryCategory Category   `xml:"http://arxiv.org/schemas/atom primary_category"`
	Comment         string     `xml:"http://arxiv.org/schemas/atom comment"`
	JournalRef      string     `xml:"http://arxiv.org/schemas/atom journal_ref"`
	DOI             string     `xml:"http://arxiv.org/schemas/atom doi"`
}

// Author is an entry author.
type Author struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"http://arxiv.org/schemas/atom affiliation"`
}

// Link is an Atom link element (abs page, pdf, doi).
type Link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// Category is an arXiv subject class such as cs.LG.
type Category struct {
	Term string `xml:"term,attr"`
}

// entryIDPattern splits an entry id URL into the arXiv id and version.
var entryIDPattern = regexp.MustCompile(`/abs/(.+?)(v\d+)?$`)

// PaperID returns the arXiv id (without version) and version suffix of the entry.
func (e Entry) PaperID() (id, version string) {
	m := entryIDPattern.FindStringSubmatch(e.ID)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// IsError reports whether the entry is the API's error placeholder.
// arXiv answers malformed ids with a single entry whose id points at /api/errors.
func (e Entry) IsError() bool {
	return strings.Contains(e.ID, "/api/errors")
}
