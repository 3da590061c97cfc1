package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindBibTeXBlock is the AST kind of a bibtex fence after transformation.
var KindBibTeXBlock = ast.NewNodeKind("BibTeXBlock")

// BibTeXBlockNode replaces a bibtex FencedCodeBlock in the document tree.
type BibTeXBlockNode struct {
	ast.BaseBlock
	Content string
	Keys    []string
}

// Kind implements ast.Node.
func (n *BibTeXBlockNode) Kind() ast.NodeKind { return KindBibTeXBlock }

// IsRaw implements ast.Node.
func (n *BibTeXBlockNode) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *BibTeXBlockNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Keys": strings.Join(n.Keys, ",")}, nil)
}

type bibtexTransformer struct{}

func (bibtexTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var targets []*ast.FencedCodeBlock
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fc, ok := n.(*ast.FencedCodeBlock); ok && IsBibTeXLang(string(fc.Language(source))) {
			targets = append(targets, fc)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fc := range targets {
		content := codeText(fc, source)
		node := &BibTeXBlockNode{Content: content, Keys: citeKeys(content)}
		parent := fc.Parent()
		parent.ReplaceChild(parent, fc, node)
	}
}

type bibtexRenderer struct{}

func (bibtexRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindBibTeXBlock, renderBibTeXBlock)
}

func renderBibTeXBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*BibTeXBlockNode)

	w.WriteString(`<pre class="bibref-block"`)
	if len(n.Keys) > 0 {
		fmt.Fprintf(w, ` data-citekey="%s"`, html.EscapeString(strings.Join(n.Keys, " ")))
	}
	w.WriteString(`><code class="language-bibtex">`)
	w.WriteString(html.EscapeString(n.Content))
	w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

// Extension turns bibtex fences into read-only blocks.
type Extension struct{}

// Extend implements goldmark.Extender.
func (Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(bibtexTransformer{}, 100)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(bibtexRenderer{}, 100)))
}

// RenderHTML renders a note to HTML. Bibtex fences become
// <pre class="bibref-block"> elements tagged with their cite keys.
func RenderHTML(source []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(Extension{}))
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTerminal renders a note for the terminal. An empty style picks
// dark or light from the terminal background.
func RenderTerminal(source []byte, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(string(source))
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
