package reference

import "strings"

// Author represents a paper author with optional ORCID identifier.
type Author struct {
	First string `json:"first"`           // First/given name(s)
	Last  string `json:"last"`            // Last/family name
	ORCID string `json:"orcid,omitempty"` // ORCID identifier (without URL prefix)
}

// Full returns the author as "First Last".
func (a Author) Full() string {
	if a.First != "" {
		return a.First + " " + a.Last
	}
	return a.Last
}

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// Lowercase particles that belong to the family name ("van der Waals").
var nameParticles = map[string]bool{
	"van": true,
	"von": true,
	"der": true,
	"den": true,
	"de":  true,
	"del": true,
	"da":  true,
	"di":  true,
	"la":  true,
	"le":  true,
	"du":  true,
}

// ParseName splits a display name into an Author.
//
// Accepts "First Middle Last", "Last, First", "First Last, Jr." and the
// BibTeX "Last, Jr., First". Suffixes (Jr, III, PhD) stay with the last
// name, and lowercase particles (van, von, de) before the final word are
// treated as part of the last name.
func ParseName(name string) Author {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return Author{}
	}
	if !strings.Contains(name, ",") {
		return parseSpaced(name)
	}

	var parts []string
	for _, p := range strings.Split(name, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch {
	case len(parts) == 1:
		return parseSpaced(parts[0])
	case len(parts) == 2 && isSuffix(parts[1]):
		a := parseSpaced(parts[0])
		a.Last += " " + parts[1]
		return a
	case len(parts) >= 3 && isSuffix(parts[1]):
		return Author{First: strings.Join(parts[2:], " "), Last: parts[0] + " " + parts[1]}
	case len(parts) == 3 && isSuffix(parts[2]):
		return Author{First: parts[1], Last: parts[0] + " " + parts[2]}
	}
	return Author{First: strings.Join(parts[1:], " "), Last: parts[0]}
}

func isSuffix(s string) bool {
	s = strings.ToLower(s)
	return nameSuffixes[s] || nameSuffixes[strings.TrimSuffix(s, ".")]
}

// parseSpaced handles names without commas.
func parseSpaced(name string) Author {
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Author{Last: parts[0]}
	}

	end := len(parts)
	var suffix string
	if end > 2 && isSuffix(parts[end-1]) {
		suffix = parts[end-1]
		end--
	}

	start := end - 1
	for start > 1 && nameParticles[parts[start-1]] {
		start--
	}

	last := strings.Join(parts[start:end], " ")
	if suffix != "" {
		last += " " + suffix
	}
	return Author{
		First: strings.Join(parts[:start], " "),
		Last:  last,
	}
}
