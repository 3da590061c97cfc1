// Package markdown finds and renders fenced BibTeX blocks in notes.
package markdown

import (
	"bytes"
	"strings"

	"github.com/matsen/bibref/internal/export"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Block is one fenced bibtex block in a note.
type Block struct {
	Lang      string   `json:"lang"`
	StartLine int      `json:"start_line"` // Opening fence, 1-based
	EndLine   int      `json:"end_line"`   // Closing fence, or last line when unclosed
	Content   string   `json:"content"`
	Keys      []string `json:"keys,omitempty"`
}

// IsBibTeXLang reports whether a fence info string marks BibTeX.
func IsBibTeXLang(lang string) bool {
	switch strings.ToLower(lang) {
	case "bibtex", "bib":
		return true
	}
	return false
}

// FindBibTeXBlocks returns the bibtex fences in source, in document order.
// Blocks nested in lists or quotes are included.
func FindBibTeXBlocks(source []byte) []Block {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	lineStarts := indexLines(source)

	var blocks []Block
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok || fc.Info == nil {
			return ast.WalkContinue, nil
		}
		lang := string(fc.Language(source))
		if !IsBibTeXLang(lang) {
			return ast.WalkContinue, nil
		}

		content := codeText(fc, source)
		start := lineOf(lineStarts, fc.Info.Segment.Start)
		end := start + 1
		if lines := fc.Lines(); lines.Len() > 0 {
			end = lineOf(lineStarts, lines.At(lines.Len()-1).Start) + 1
		}
		if end > len(lineStarts) || !isFenceLine(lineText(source, lineStarts, end)) {
			end-- // Unclosed fence runs to the end of the document
		}

		blocks = append(blocks, Block{
			Lang:      lang,
			StartLine: start,
			EndLine:   end,
			Content:   content,
			Keys:      citeKeys(content),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// Fence wraps BibTeX in a ```bibtex block. The result ends with a newline.
func Fence(bibtex string) string {
	return "```bibtex\n" + strings.TrimRight(bibtex, "\n") + "\n```\n"
}

func codeText(fc *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := fc.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// citeKeys lists the keys of the entries in a block. Parse errors keep
// whatever entries came before the error.
func citeKeys(content string) []string {
	entries, _ := export.ParseEntries(content)
	var keys []string
	for _, e := range entries {
		if e.Key != "" {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

func indexLines(source []byte) []int {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a byte offset to a 1-based line number.
func lineOf(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func lineText(source []byte, starts []int, line int) string {
	if line < 1 || line > len(starts) {
		return ""
	}
	start := starts[line-1]
	end := len(source)
	if line < len(starts) {
		end = starts[line]
	}
	return string(source[start:end])
}

func isFenceLine(line string) bool {
	s := strings.TrimLeft(strings.TrimSpace(line), "> ")
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}
