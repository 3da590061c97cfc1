package export

import (
	"strings"
)

// Field is a single BibTeX field. Bare values (month macros, @string
// references) are written without braces.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Bare  bool   `json:"bare,omitempty"`
}

// Entry is one BibTeX entry.
type Entry struct {
	Type   string  `json:"type"`
	Key    string  `json:"key"`
	Fields []Field `json:"fields"`
	Line   int     `json:"line,omitempty"` // 1-based line of the @ when parsed
}

// Get returns the value of the named field (case-insensitive), or "".
func (e Entry) Get(name string) string {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Format writes the entry in the layout used throughout bibref:
// one field per line, two-space indent, braced values.
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString("@" + e.Type + "{" + e.Key + ",\n")
	for _, f := range e.Fields {
		b.WriteString("  " + f.Name + " = ")
		if f.Bare {
			b.WriteString(f.Value)
		} else {
			b.WriteString("{" + f.Value + "}")
		}
		b.WriteString(",\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func (e *Entry) add(name, value string) {
	if value == "" {
		return
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

func (e *Entry) addBare(name, value string) {
	if value == "" {
		return
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value, Bare: true})
}
