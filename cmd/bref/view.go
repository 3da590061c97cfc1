package main

import (
	"fmt"
	"os"

	"github.com/matsen/bibref/internal/markdown"
	"github.com/matsen/bibref/internal/vault"
	"github.com/spf13/cobra"
)

var (
	viewHTML   bool
	viewBlocks bool
	viewWidth  int
)

var viewCmd = &cobra.Command{
	Use:   "view <note>",
	Short: "Render a note with its BibTeX blocks shown read-only",
	Long: `Render a markdown note. Fenced bibtex blocks are shown as read-only code
tagged with their cite keys.

By default the note is rendered for the terminal. --html writes HTML with
each bibtex block as <pre class="bibref-block" data-citekey="...">.
--blocks lists the bibtex blocks (line ranges and cite keys) instead.

Examples:
  bref view references/Vaswani2017-aa.md
  bref view Vaswani2017-aa --html > note.html
  bref view drafts/intro.md --blocks`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVar(&viewHTML, "html", false, "Render HTML")
	viewCmd.Flags().BoolVar(&viewBlocks, "blocks", false, "List bibtex blocks instead of rendering")
	viewCmd.Flags().IntVar(&viewWidth, "width", 80, "Word wrap width for terminal rendering")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	path, err := findNote(e, args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading note: %w", err)
	}
	out := cmd.OutOrStdout()

	if viewBlocks {
		blocks := markdown.FindBibTeXBlocks(data)
		if !humanOutput {
			if blocks == nil {
				blocks = []markdown.Block{}
			}
			return outputJSON(out, blocks)
		}
		for _, b := range blocks {
			fmt.Fprintf(out, "lines %d-%d: %v\n", b.StartLine, b.EndLine, b.Keys)
		}
		return nil
	}

	_, body, err := vault.ParseFrontmatter(data)
	if err != nil {
		return withCode(ExitDataError, err)
	}

	if viewHTML {
		html, err := markdown.RenderHTML(body)
		if err != nil {
			return err
		}
		_, err = out.Write(html)
		return err
	}

	style := ""
	if !isTTY(out) {
		style = "notty"
	}
	rendered, err := markdown.RenderTerminal(body, viewWidth, style)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}
