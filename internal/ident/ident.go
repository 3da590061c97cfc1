// Package ident classifies raw user input as an arXiv identifier, a DOI, or
// a free-text query.
package ident

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// Kind is the identifier family a query belongs to.
type Kind string

const (
	KindArXiv Kind = "arxiv"
	KindDOI   Kind = "doi"
	KindQuery Kind = "query"
)

// ErrEmptyQuery is returned when the input is empty or only whitespace.
var ErrEmptyQuery = errors.New("empty query")

// Identifier is a classified query.
type Identifier struct {
	Kind    Kind   `json:"kind"`
	Value   string `json:"value"`             // Canonical id (arXiv id without version, DOI as given) or query text
	Version string `json:"version,omitempty"` // arXiv version suffix, e.g. "v2"
}

// String returns the identifier in prefixed form.
func (id Identifier) String() string {
	switch id.Kind {
	case KindArXiv:
		return "arXiv:" + id.Value + id.Version
	case KindDOI:
		return "doi:" + id.Value
	default:
		return id.Value
	}
}

// IsIdentifier reports whether the input was recognized as an arXiv id or DOI.
func (id Identifier) IsIdentifier() bool {
	return id.Kind == KindArXiv || id.Kind == KindDOI
}

// Key returns a normalized key for caching and de-duplication.
func (id Identifier) Key() string {
	switch id.Kind {
	case KindDOI:
		return "doi:" + NormalizeDOI(id.Value)
	case KindArXiv:
		return "arxiv:" + strings.ToLower(id.Value)
	default:
		return "query:" + strings.ToLower(strings.Join(strings.Fields(id.Value), " "))
	}
}

// Anchored patterns used by Classify.
var (
	// 2106.15928, 0704.0001v3
	arxivNewPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5})(v\d+)?$`)
	// hep-th/9901001, math.GT/0309136v1
	arxivOldPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z\-]*(?:\.[A-Z]{2})?/\d{7})(v\d+)?$`)
	arxivURLPattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|export\.)?arxiv\.org/(?:abs|pdf)/(.+?)(?:\.pdf)?/?$`)
	arxivPrefix     = regexp.MustCompile(`(?i)^arxiv:\s*(.+)$`)
	doiPattern      = regexp.MustCompile(`(?i)^(?:doi:\s*|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}(?:\.\d+)*/\S+)$`)
	// DataCite DOIs minted for arXiv papers.
	arxivDOIPattern = regexp.MustCompile(`(?i)^10\.48550/arxiv\.(.+)$`)
)

// Classify parses user input into an Identifier.
//
// Supported forms:
//   - 2106.15928, 2106.15928v2, hep-th/9901001
//   - arXiv:2106.15928, https://arxiv.org/abs/2106.15928, https://arxiv.org/pdf/2106.15928v1.pdf
//   - 10.1038/nature12373, doi:10.1038/nature12373, https://doi.org/10.1038/nature12373
//
// Anything else is returned as a KindQuery identifier.
func Classify(input string) (Identifier, error) {
	q := strings.TrimSpace(input)
	if q == "" {
		return Identifier{}, ErrEmptyQuery
	}

	candidate := trimTrailingPunct(q)

	if m := arxivURLPattern.FindStringSubmatch(candidate); m != nil {
		if id, ok := parseArXiv(m[1]); ok {
			return id, nil
		}
	}
	if m := arxivPrefix.FindStringSubmatch(candidate); m != nil {
		if id, ok := parseArXiv(strings.TrimSpace(m[1])); ok {
			return id, nil
		}
	}
	if id, ok := parseArXiv(candidate); ok {
		return id, nil
	}

	if m := doiPattern.FindStringSubmatch(candidate); m != nil {
		doi := m[1]
		if am := arxivDOIPattern.FindStringSubmatch(doi); am != nil {
			if id, ok := parseArXiv(am[1]); ok {
				return id, nil
			}
		}
		return Identifier{Kind: KindDOI, Value: doi}, nil
	}

	return Identifier{Kind: KindQuery, Value: strings.Join(strings.Fields(q), " ")}, nil
}

// parseArXiv matches a bare arXiv id with optional version.
func parseArXiv(s string) (Identifier, bool) {
	if m := arxivNewPattern.FindStringSubmatch(s); m != nil {
		return Identifier{Kind: KindArXiv, Value: m[1], Version: m[2]}, true
	}
	if m := arxivOldPattern.FindStringSubmatch(s); m != nil {
		return Identifier{Kind: KindArXiv, Value: m[1], Version: m[2]}, true
	}
	return Identifier{}, false
}

// trimTrailingPunct removes sentence punctuation that commonly trails a pasted
// id. A closing parenthesis goes only when it has no opening partner, so
// DOIs like 10.1002/(SICI)1097-4636(199905) survive intact.
func trimTrailingPunct(s string) string {
	for {
		s = strings.TrimRight(s, ".,;:")
		if !strings.HasSuffix(s, ")") || strings.Count(s, "(") >= strings.Count(s, ")") {
			return s
		}
		s = s[:len(s)-1]
	}
}

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, doi:) and converts to lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			lower = strings.TrimSpace(lower[len(prefix):])
			break
		}
	}
	return lower
}

// Unanchored patterns used by ExtractAll.
var (
	// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
	doiInText = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)
	// arXiv ids need a marker in free text; bare YYMM.NNNNN is too ambiguous.
	arxivInText = []*regexp.Regexp{
		regexp.MustCompile(`(?i)arxiv[:\s]+(\d{4}\.\d{4,5})(v\d+)?`),
		regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})(v\d+)?`),
		regexp.MustCompile(`(?i)arxiv[:\s]+([a-z][a-z\-]*(?:\.[A-Z]{2})?/\d{7})(v\d+)?`),
		regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([a-z][a-z\-]*(?:\.[A-Z]{2})?/\d{7})(v\d+)?`),
	}
)

type located struct {
	pos int
	id  Identifier
}

// ExtractAll finds every arXiv id and DOI in a block of text.
// Results are de-duplicated and returned in order of first appearance.
func ExtractAll(text string) []Identifier {
	var found []located

	for _, loc := range doiInText.FindAllStringIndex(text, -1) {
		doi := trimTrailingPunct(text[loc[0]:loc[1]])
		if !isValidDOI(doi) {
			continue
		}
		id := Identifier{Kind: KindDOI, Value: doi}
		if am := arxivDOIPattern.FindStringSubmatch(doi); am != nil {
			if aid, ok := parseArXiv(am[1]); ok {
				id = aid
			}
		}
		found = append(found, located{pos: loc[0], id: id})
	}

	for _, re := range arxivInText {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			id := Identifier{Kind: KindArXiv, Value: text[m[2]:m[3]]}
			if m[4] >= 0 {
				id.Version = text[m[4]:m[5]]
			}
			found = append(found, located{pos: m[0], id: id})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	seen := make(map[string]bool)
	var ids []Identifier
	for _, f := range found {
		key := f.id.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		ids = append(ids, f.id)
	}
	return ids
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
