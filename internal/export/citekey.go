package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/matsen/bibref/internal/reference"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultKeyPattern produces keys like Zhang2018-vi.
const DefaultKeyPattern = "{last}{year}-{suffix}"

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true, "in": true,
	"on": true, "for": true, "to": true, "with": true, "at": true, "by": true,
	"from": true, "is": true, "are": true,
}

// CiteKey generates a citation key from a pattern. Supported placeholders:
//
//	{last}    first author's last name, ASCII-folded
//	{year}    publication year (9999 when unknown)
//	{suffix}  first letters of the first two significant title words
//	{word}    first significant title word
//	{arxiv}   arXiv id with punctuation removed
//
// An empty pattern means DefaultKeyPattern.
func CiteKey(ref reference.Reference, pattern string) string {
	if pattern == "" {
		pattern = DefaultKeyPattern
	}

	last := sanitizeForCiteKey(ref.FirstAuthorLast())
	if last == "" {
		last = "Unknown"
	}

	year := ref.Published.Year
	if year == 0 {
		year = 9999
	}

	words := significantWords(ref.Title)
	word := "untitled"
	if len(words) > 0 {
		word = words[0]
	}

	r := strings.NewReplacer(
		"{last}", last,
		"{year}", strconv.Itoa(year),
		"{suffix}", titleSuffix(words),
		"{word}", word,
		"{arxiv}", sanitizeForCiteKey(ref.ArXivID),
	)
	key := r.Replace(pattern)
	if key == "" {
		return last + strconv.Itoa(year)
	}
	return key
}

// ParentKey generates the key of a crossref parent entry from the venue's
// initials and the year, e.g. "Proceedings of the International Conference on
// Machine Learning" in 2020 becomes PICML2020.
func ParentKey(ref reference.Reference) string {
	var b strings.Builder
	for _, w := range strings.Fields(foldASCII(ref.Venue)) {
		if stopWords[strings.ToLower(w)] {
			continue
		}
		for _, c := range w {
			if unicode.IsLetter(c) {
				b.WriteRune(unicode.ToUpper(c))
			}
			break
		}
	}
	if b.Len() == 0 {
		b.WriteString("Collection")
	}
	if ref.Published.Year > 0 {
		b.WriteString(strconv.Itoa(ref.Published.Year))
	}
	return b.String()
}

// GenerateUniqueKey returns a key that is not in taken.
// If the base key is taken, appends -2, -3, etc.
func GenerateUniqueKey(taken map[string]bool, baseKey string) string {
	if !taken[baseKey] {
		return baseKey
	}

	// Start at 2: baseKey is taken, so first duplicate becomes baseKey-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseKey, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// sanitizeForCiteKey folds accents and removes non-alphanumeric characters.
func sanitizeForCiteKey(s string) string {
	var result strings.Builder
	for _, r := range foldASCII(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// significantWords returns the lowercased, sanitized title words that are
// not stop words.
func significantWords(title string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = sanitizeForCiteKey(w)
		if w == "" || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// titleSuffix creates a 2-letter suffix from the title words.
func titleSuffix(words []string) string {
	var suffix strings.Builder
	for _, w := range words {
		suffix.WriteByte(w[0])
		if suffix.Len() >= 2 {
			break
		}
	}

	// Pad if needed
	for suffix.Len() < 2 {
		suffix.WriteByte('x')
	}

	return suffix.String()
}

// foldASCII strips combining marks so "Müller" becomes "Muller".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
