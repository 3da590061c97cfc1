package export

import (
	"strings"
	"testing"

	"github.com/matsen/bibref/internal/reference"
)

func TestToBibTeX_BasicArticle(t *testing.T) {
	ref := reference.Reference{
		ID:    "Smith2026-ab",
		Type:  reference.TypeArticle,
		DOI:   "10.1234/test",
		Title: "Test Paper Title",
		Authors: []reference.Author{
			{First: "John", Last: "Smith"},
			{First: "Jane", Last: "Doe"},
		},
		Abstract:  "This is the abstract",
		Venue:     "Nature",
		Published: reference.PublicationDate{Year: 2026, Month: 3},
		Volume:    "12",
		Number:    "4",
		Pages:     "100-110",
	}

	got := ToBibTeX(ref, Options{IncludeAbstract: true})

	want := `@article{Smith2026-ab,
  author = {Smith, John and Doe, Jane},
  title = {Test Paper Title},
  journal = {Nature},
  year = {2026},
  month = {3},
  volume = {12},
  number = {4},
  pages = {100--110},
  doi = {10.1234/test},
  abstract = {This is the abstract},
}
`
	if got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant:\n%s", got, want)
	}
}

func TestToBibTeX_Preprint(t *testing.T) {
	ref := reference.Reference{
		ID:           "Vaswani2017-at",
		Type:         reference.TypeMisc,
		ArXivID:      "1706.03762",
		Title:        "Attention Is All You Need",
		Authors:      []reference.Author{{First: "Ashish", Last: "Vaswani"}},
		Venue:        "arXiv",
		Published:    reference.PublicationDate{Year: 2017, Month: 6},
		PrimaryClass: "cs.CL",
		URL:          "https://arxiv.org/abs/1706.03762",
		Keywords:     []string{"cs.CL", "cs.LG"},
	}

	got := ToBibTeX(ref, Options{MonthNames: true})

	want := `@misc{Vaswani2017-at,
  author = {Vaswani, Ashish},
  title = {Attention Is All You Need},
  year = {2017},
  month = jun,
  eprint = {1706.03762},
  archivePrefix = {arXiv},
  primaryClass = {cs.CL},
  url = {https://arxiv.org/abs/1706.03762},
  keywords = {cs.CL, cs.LG},
}
`
	if got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant:\n%s", got, want)
	}
}

func TestToBibTeX_Inproceedings(t *testing.T) {
	ref := reference.Reference{
		ID:    "Conference2026",
		Title: "A Conference Paper",
		Authors: []reference.Author{
			{First: "Alice", Last: "Brown"},
		},
		Venue:     "Proceedings of ICML 2026",
		Published: reference.PublicationDate{Year: 2026},
	}

	got := ToBibTeX(ref, Options{})

	if !strings.HasPrefix(got, "@inproceedings{Conference2026,") {
		t.Errorf("ToBibTeX() conference paper should be @inproceedings, got:\n%s", got)
	}

	if !strings.Contains(got, `booktitle = {Proceedings of ICML 2026}`) {
		t.Errorf("ToBibTeX() conference paper should use booktitle, got:\n%s", got)
	}
}

func TestToBibTeX_CrossRef(t *testing.T) {
	ref := reference.Reference{
		ID:        "Brown2020-la",
		Type:      reference.TypeInProceedings,
		Title:     "Language Models are Few-Shot Learners",
		Authors:   []reference.Author{{First: "Tom", Last: "Brown"}},
		Venue:     "Advances in Neural Information Processing Systems",
		Published: reference.PublicationDate{Year: 2020},
		Pages:     "1877-1901",
		Publisher: "Curran Associates",
		ISBN:      "9781713829546",
	}

	got := ToBibTeX(ref, Options{CrossRef: true})

	want := `@inproceedings{Brown2020-la,
  author = {Brown, Tom},
  title = {Language Models are Few-Shot Learners},
  year = {2020},
  pages = {1877--1901},
  crossref = {ANIPS2020},
}

@proceedings{ANIPS2020,
  title = {Advances in Neural Information Processing Systems},
  booktitle = {Advances in Neural Information Processing Systems},
  year = {2020},
  publisher = {Curran Associates},
  isbn = {9781713829546},
}
`
	if got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant:\n%s", got, want)
	}
}

func TestToBibTeX_CrossRefSkippedForArticles(t *testing.T) {
	ref := reference.Reference{
		ID:        "Doe2020",
		Type:      reference.TypeArticle,
		Title:     "Journal Paper",
		Venue:     "Nature",
		Published: reference.PublicationDate{Year: 2020},
	}

	got := ToBibTeX(ref, Options{CrossRef: true})

	if strings.Contains(got, "crossref") || strings.Count(got, "@") != 1 {
		t.Errorf("articles should not be linked, got:\n%s", got)
	}
	if !strings.Contains(got, "journal = {Nature}") {
		t.Errorf("journal missing, got:\n%s", got)
	}
}

func TestToBibTeX_GeneratesKey(t *testing.T) {
	ref := reference.Reference{
		Title:     "Deep Residual Learning",
		Authors:   []reference.Author{{First: "Kaiming", Last: "He"}},
		Published: reference.PublicationDate{Year: 2016},
	}

	got := ToBibTeX(ref, Options{})
	if !strings.HasPrefix(got, "@article{He2016-dr,") {
		t.Errorf("ToBibTeX() should derive a key, got:\n%s", got)
	}
}

func TestDetermineEntryType(t *testing.T) {
	tests := []struct {
		name string
		ref  reference.Reference
		want string
	}{
		{"explicit type", reference.Reference{Type: reference.TypeBook, Venue: "Conference"}, "book"},
		{"journal", reference.Reference{Venue: "Nature"}, "article"},
		{"biorxiv", reference.Reference{Venue: "bioRxiv"}, "article"},
		{"arxiv preprint", reference.Reference{ArXivID: "2101.00001", Venue: "arXiv"}, "misc"},
		{"proceedings", reference.Reference{Venue: "Proceedings of NeurIPS"}, "inproceedings"},
		{"conference", reference.Reference{Venue: "International Conference on Machine Learning"}, "inproceedings"},
		{"workshop", reference.Reference{Venue: "Workshop on AI Safety"}, "inproceedings"},
		{"symposium", reference.Reference{Venue: "Symposium on Theory of Computing"}, "inproceedings"},
		{"default", reference.Reference{}, "article"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := determineEntryType(tt.ref)
			if got != tt.want {
				t.Errorf("determineEntryType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name    string
		authors []reference.Author
		want    string
	}{
		{
			name: "single author",
			authors: []reference.Author{
				{First: "John", Last: "Smith"},
			},
			want: "Smith, John",
		},
		{
			name: "three authors",
			authors: []reference.Author{
				{First: "Alice", Last: "Brown"},
				{First: "Bob", Last: "Jones"},
				{First: "Carol", Last: "White"},
			},
			want: "Brown, Alice and Jones, Bob and White, Carol",
		},
		{
			name: "author with only last name",
			authors: []reference.Author{
				{Last: "Corporation"},
			},
			want: "Corporation",
		},
		{
			name: "organisation is braced",
			authors: []reference.Author{
				{First: "John", Last: "Smith"},
				{Last: "World Health Organization"},
			},
			want: "Smith, John and {World Health Organization}",
		},
		{
			name: "particle and suffix",
			authors: []reference.Author{
				{First: "Ludwig", Last: "van Beethoven"},
				{First: "Martin", Last: "King Jr."},
			},
			want: "van Beethoven, Ludwig and King Jr., Martin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatAuthors(tt.authors)
			if got != tt.want {
				t.Errorf("formatAuthors() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"100% effective", `100\% effective`},
		{"A & B", `A \& B`},
		{"$100 price", `\$100 price`},
		{"section #1", `section \#1`},
		{"under_score", `under\_score`},
		{"{braces}", `\{braces\}`},
		{"test~tilde", `test\textasciitilde{}tilde`},
		{"x^2", `x\textasciicircum{}2`},
		{`a\b`, `a\textbackslash{}b`},
		{"A & B: $100 for {item} #1", `A \& B: \$100 for \{item\} \#1`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeLatex(tt.input)
			if got != tt.want {
				t.Errorf("escapeLatex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPages(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"42", "42"},
		{"1906-1917", "1906--1917"},
		{"1906--1917", "1906--1917"},
		{"12 – 19", "12--19"},
		{"e1002345", "e1002345"},
	}

	for _, tt := range tests {
		if got := formatPages(tt.in); got != tt.want {
			t.Errorf("formatPages(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToBibTeX_OptionalFields(t *testing.T) {
	ref := reference.Reference{
		ID:    "Minimal2026",
		Title: "Minimal Paper",
		Authors: []reference.Author{
			{First: "A", Last: "B"},
		},
		Abstract:  "Present but not requested",
		Published: reference.PublicationDate{Year: 2026},
	}

	got := ToBibTeX(ref, Options{})

	for _, field := range []string{"doi = ", "abstract = ", "month = ", "journal = ", "booktitle = ", "eprint = ", "crossref = "} {
		if strings.Contains(got, field) {
			t.Errorf("ToBibTeX() should not include %q, got:\n%s", field, got)
		}
	}
}

func TestToBibTeX_SpecialCharactersInTitle(t *testing.T) {
	ref := reference.Reference{
		ID:    "Special2026",
		Title: "A Study of α & β: 100% Complete",
		Authors: []reference.Author{
			{First: "Test", Last: "Author"},
		},
		Published: reference.PublicationDate{Year: 2026},
	}

	got := ToBibTeX(ref, Options{})

	if !strings.Contains(got, `title = {A Study of α \& β: 100\% Complete}`) {
		t.Errorf("ToBibTeX() should escape special chars in title, got:\n%s", got)
	}
}

func TestToBibTeXList(t *testing.T) {
	refs := []reference.Reference{
		{
			ID:        "First2026",
			Title:     "First Paper",
			Authors:   []reference.Author{{First: "A", Last: "B"}},
			Published: reference.PublicationDate{Year: 2026},
		},
		{
			ID:        "Second2026",
			Title:     "Second Paper",
			Authors:   []reference.Author{{First: "C", Last: "D"}},
			Published: reference.PublicationDate{Year: 2025},
		},
	}

	got := ToBibTeXList(refs, Options{})

	parts := strings.Split(got, "@article{")
	if len(parts) != 3 { // Empty first part + 2 entries
		t.Errorf("ToBibTeXList() should have 2 entries separated properly, got %d parts", len(parts)-1)
	}
}

func TestToBibTeXList_SharedParentAfterChildren(t *testing.T) {
	chapter := func(id, title string) reference.Reference {
		return reference.Reference{
			ID:        id,
			Type:      reference.TypeInCollection,
			Title:     title,
			Venue:     "Handbook of Statistics",
			Published: reference.PublicationDate{Year: 2019},
		}
	}
	refs := []reference.Reference{chapter("A2019", "One"), chapter("B2019", "Two")}

	got := ToBibTeXList(refs, Options{CrossRef: true})

	if n := strings.Count(got, "@book{HS2019,"); n != 1 {
		t.Fatalf("parent written %d times, want 1:\n%s", n, got)
	}
	parent := strings.Index(got, "@book{")
	if strings.LastIndex(got, "@incollection{") > parent {
		t.Errorf("parent must follow every child:\n%s", got)
	}
}

func TestToBibTeXList_Empty(t *testing.T) {
	got := ToBibTeXList([]reference.Reference{}, Options{})
	if got != "" {
		t.Errorf("ToBibTeXList([]) should return empty string, got: %q", got)
	}
}

func TestToBibTeX_NoAuthors(t *testing.T) {
	ref := reference.Reference{
		ID:        "NoAuth2026",
		Title:     "Paper Without Authors",
		Authors:   []reference.Author{},
		Published: reference.PublicationDate{Year: 2026},
	}

	got := ToBibTeX(ref, Options{})

	if strings.Contains(got, "author = ") {
		t.Errorf("ToBibTeX() should not include empty authors, got:\n%s", got)
	}
	if !strings.Contains(got, "title = ") || !strings.Contains(got, "year = ") {
		t.Errorf("ToBibTeX() should still include title and year, got:\n%s", got)
	}
}
