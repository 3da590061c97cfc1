// Package crossref provides a client for the Crossref REST API.
package crossref

// WorkResponse is the envelope returned by GET /works/{doi}.
type WorkResponse struct {
	Status      string `json:"status"`
	MessageType string `json:"message-type"`
	Message     Work   `json:"message"`
}

// SearchResponse is the envelope returned by GET /works?query=...
type SearchResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []Work `json:"items"`
	} `json:"message"`
}

// Work is a Crossref metadata record.
type Work struct {
	DOI                 string        `json:"DOI"`
	Type                string        `json:"type"` // journal-article, proceedings-article, book-chapter, ...
	Title               []string      `json:"title"`
	Subtitle            []string      `json:"subtitle,omitempty"`
	ContainerTitle      []string      `json:"container-title"`
	ShortContainerTitle []string      `json:"short-container-title,omitempty"`
	Author              []Contributor `json:"author"`
	Editor              []Contributor `json:"editor,omitempty"`
	Issued              DateParts     `json:"issued"`
	PublishedPrint      DateParts     `json:"published-print"`
	PublishedOnline     DateParts     `json:"published-online"`
	Created             DateParts     `json:"created"`
	Volume              string        `json:"volume,omitempty"`
	Issue               string        `json:"issue,omitempty"`
	Page                string        `json:"page,omitempty"`
	Publisher           string        `json:"publisher,omitempty"`
	ISBN                []string      `json:"ISBN,omitempty"`
	ISSN                []string      `json:"ISSN,omitempty"`
	URL                 string        `json:"URL,omitempty"`
	Abstract            string        `json:"abstract,omitempty"` // JATS XML
	Subject             []string      `json:"subject,omitempty"`
	Event               *Event        `json:"event,omitempty"`
	Score               float64       `json:"score,omitempty"` // Relevance score in search results
}

// Contributor is an author or editor. Organisations use Name instead of Given/Family.
type Contributor struct {
	Given    string `json:"given,omitempty"`
	Family   string `json:"family,omitempty"`
	Name     string `json:"name,omitempty"`
	ORCID    string `json:"ORCID,omitempty"` // https://orcid.org/0000-...
	Sequence string `json:"sequence,omitempty"`
}

// DateParts holds a Crossref partial date: [[year, month, day]].
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Parts returns year, month and day (zero when absent).
func (d DateParts) Parts() (year, month, day int) {
	if len(d.DateParts) == 0 {
		return 0, 0, 0
	}
	p := d.DateParts[0]
	if len(p) > 0 {
		year = p[0]
	}
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}
	return year, month, day
}

// Event describes the conference a proceedings article was presented at.
type Event struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}
