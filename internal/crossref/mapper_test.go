package crossref

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibref/internal/reference"
)

func TestMapToReference_JournalArticle(t *testing.T) {
	var resp WorkResponse
	if err := json.Unmarshal([]byte(sampleWork), &resp); err != nil {
		t.Fatalf("parsing sample work: %v", err)
	}

	got := MapToReference(resp.Message)

	want := reference.Reference{
		Type:  reference.TypeArticle,
		DOI:   "10.1093/molbev/msy096",
		Title: "Bayesian phylogenetic analysis of linked reads",
		Authors: []reference.Author{
			{First: "Frederick A.", Last: "Matsen", ORCID: "0000-0003-0607-6025"},
			{First: "Chaoran", Last: "Zhang"},
			{Last: "Phylogenetics Consortium"},
		},
		Abstract:  "We describe a method & a tool.",
		Venue:     "Molecular Biology and Evolution",
		Published: reference.PublicationDate{Year: 2018, Month: 5, Day: 4},
		Volume:    "35",
		Number:    "8",
		Pages:     "1906-1917",
		Publisher: "Oxford University Press (OUP)",
		ISSN:      "0737-4038",
		URL:       "http://dx.doi.org/10.1093/molbev/msy096",
		Keywords:  []string{"Genetics", "Molecular Biology"},
		Source:    reference.ImportSource{Type: reference.SourceCrossref, ID: "10.1093/molbev/msy096"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapToReference() mismatch (-want +got):\n%s", diff)
	}
}

func TestMapType(t *testing.T) {
	tests := []struct {
		crossref string
		want     string
	}{
		{"journal-article", reference.TypeArticle},
		{"proceedings-article", reference.TypeInProceedings},
		{"book-chapter", reference.TypeInCollection},
		{"book", reference.TypeBook},
		{"posted-content", reference.TypeMisc},
		{"report", reference.TypeTechReport},
		{"dissertation", reference.TypePhDThesis},
		{"peer-review", reference.TypeMisc},
		{"", reference.TypeMisc},
	}

	for _, tt := range tests {
		t.Run(tt.crossref, func(t *testing.T) {
			if got := mapType(tt.crossref); got != tt.want {
				t.Errorf("mapType(%q) = %q, want %q", tt.crossref, got, tt.want)
			}
		})
	}
}

func TestMapDate_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		work Work
		want reference.PublicationDate
	}{
		{
			name: "issued wins",
			work: Work{
				Issued:          DateParts{[][]int{{2020}}},
				PublishedOnline: DateParts{[][]int{{2019, 12, 1}}},
			},
			want: reference.PublicationDate{Year: 2020},
		},
		{
			name: "print before online",
			work: Work{
				PublishedPrint:  DateParts{[][]int{{2021, 3}}},
				PublishedOnline: DateParts{[][]int{{2020, 11, 2}}},
			},
			want: reference.PublicationDate{Year: 2021, Month: 3},
		},
		{
			name: "created as last resort",
			work: Work{Created: DateParts{[][]int{{2015, 7, 9}}}},
			want: reference.PublicationDate{Year: 2015, Month: 7, Day: 9},
		},
		{
			name: "null issued falls through",
			work: Work{
				Issued:  DateParts{[][]int{{0}}},
				Created: DateParts{[][]int{{2011, 1, 1}}},
			},
			want: reference.PublicationDate{Year: 2011, Month: 1, Day: 1},
		},
		{
			name: "nothing",
			work: Work{},
			want: reference.PublicationDate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDate(tt.work); got != tt.want {
				t.Errorf("mapDate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMapToReference_ProceedingsEventVenue(t *testing.T) {
	w := Work{
		DOI:      "10.1145/ABC.123",
		Type:     "proceedings-article",
		Title:    []string{"A Paper"},
		Subtitle: []string{"With a Subtitle"},
		Event:    &Event{Name: "SIGGRAPH 2020"},
	}

	got := MapToReference(w)

	if got.Venue != "SIGGRAPH 2020" {
		t.Errorf("Venue = %q, want event name", got.Venue)
	}
	if got.Title != "A Paper: With a Subtitle" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.DOI != "10.1145/abc.123" {
		t.Errorf("DOI = %q, want normalized", got.DOI)
	}
	if got.URL != "https://doi.org/10.1145/abc.123" {
		t.Errorf("URL = %q, want doi.org fallback", got.URL)
	}
}

func TestStripJATS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<jats:p>One <jats:italic>two</jats:italic>.</jats:p>", "One two ."},
		{"<jats:sec><jats:title>Abstract</jats:title><jats:p>Body &lt;x&gt;</jats:p></jats:sec>", "Body <x>"},
	}

	for _, tt := range tests {
		if got := StripJATS(tt.in); got != tt.want {
			t.Errorf("StripJATS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
