package arxiv

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/bibref/internal/reference"
)

func parseSampleEntry(t *testing.T) Entry {
	t.Helper()
	var feed Feed
	if err := xml.Unmarshal([]byte(sampleFeed), &feed); err != nil {
		t.Fatalf("parsing sample feed: %v", err)
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(feed.Entries))
	}
	return feed.Entries[0]
}

func TestMapToReference_Preprint(t *testing.T) {
	ref := MapToReference(parseSampleEntry(t))

	want := reference.Reference{
		Type:         reference.TypeMisc,
		ArXivID:      "1706.03762",
		ArXivVersion: "v7",
		Title:        "Attention Is All You Need",
		Abstract:     "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.",
		Venue:        "arXiv",
		Authors: []reference.Author{
			{First: "Ashish", Last: "Vaswani"},
			{First: "Noam", Last: "Shazeer"},
			{First: "Niki", Last: "Parmar"},
		},
		Published:    reference.PublicationDate{Year: 2017, Month: 6, Day: 12},
		PrimaryClass: "cs.CL",
		Keywords:     []string{"cs.CL", "cs.LG"},
		URL:          "https://arxiv.org/abs/1706.03762",
		Source:       reference.ImportSource{Type: reference.SourceArXiv, ID: "1706.03762v7"},
	}

	if diff := cmp.Diff(want, ref); diff != "" {
		t.Errorf("MapToReference() mismatch (-want +got):\n%s", diff)
	}
}

func TestMapToReference_Published(t *testing.T) {
	entry := parseSampleEntry(t)
	entry.JournalRef = "Advances in Neural Information\n Processing Systems 30"
	entry.DOI = "10.5555/3295222.3295349"

	ref := MapToReference(entry)

	if ref.Type != reference.TypeArticle {
		t.Errorf("Type = %q, want article", ref.Type)
	}
	if ref.Venue != "Advances in Neural Information Processing Systems 30" {
		t.Errorf("Venue = %q", ref.Venue)
	}
	if ref.DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q", ref.DOI)
	}
}

func TestMapToReference_PrimaryClassFallback(t *testing.T) {
	entry := Entry{
		ID:         "http://arxiv.org/abs/hep-th/9901001v1",
		Title:      "Old Paper",
		Categories: []Category{{Term: "hep-th"}},
		Published:  "not a date",
	}

	ref := MapToReference(entry)

	if ref.ArXivID != "hep-th/9901001" || ref.ArXivVersion != "v1" {
		t.Errorf("ArXivID = %q, version %q", ref.ArXivID, ref.ArXivVersion)
	}
	if ref.PrimaryClass != "hep-th" {
		t.Errorf("PrimaryClass = %q, want hep-th", ref.PrimaryClass)
	}
	if ref.Published.Year != 0 {
		t.Errorf("Published = %+v, want zero for unparseable date", ref.Published)
	}
	if len(ref.Authors) != 0 {
		t.Errorf("Authors = %v, want empty", ref.Authors)
	}
}
