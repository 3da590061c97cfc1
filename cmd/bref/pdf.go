package main

import (
	"fmt"

	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/pdf"
	"github.com/matsen/bibref/internal/reference"
	"github.com/matsen/bibref/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	pdfBibTeX  bool
	pdfNoTitle bool
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Resolve the identifiers found in a PDF",
	Long: `Scan the first pages of a PDF for DOIs and arXiv ids and resolve them.

When no identifier is found, the first title-like line is used as a
free-text query unless --no-title is given.

Examples:
  bref pdf paper.pdf
  bref pdf paper.pdf --bibtex >> refs.bib`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().BoolVar(&pdfBibTeX, "bibtex", false, "Print BibTeX for the resolved references")
	pdfCmd.Flags().BoolVar(&pdfNoTitle, "no-title", false, "Don't fall back to a title search")
	rootCmd.AddCommand(pdfCmd)
}

// PDFResult is the JSON output of pdf.
type PDFResult struct {
	File        string             `json:"file"`
	Identifiers []ident.Identifier `json:"identifiers"`
	Title       string             `json:"title,omitempty"`
	Results     []PDFMatch         `json:"results"`
}

// PDFMatch is the outcome for one identifier (or the title query).
type PDFMatch struct {
	Query     string             `json:"query"`
	Candidate *resolve.Candidate `json:"candidate,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func runPDF(cmd *cobra.Command, args []string) error {
	scan, err := pdf.ExtractIdentifiers(args[0])
	if err != nil {
		return withCode(ExitDataError, err)
	}

	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	r, cleanup, err := e.newResolver()
	if err != nil {
		return err
	}
	defer cleanup()

	queries := make([]string, len(scan.Identifiers))
	for i, id := range scan.Identifiers {
		queries[i] = id.String()
	}
	if len(queries) == 0 && scan.Title != "" && !pdfNoTitle {
		queries = []string{scan.Title}
	}
	if len(queries) == 0 {
		return withCode(ExitNotFound, fmt.Errorf("no DOI, arXiv id or title found in %s", args[0]))
	}

	results, err := r.ResolveAll(cmd.Context(), queries)
	if err != nil {
		return err
	}

	out := PDFResult{File: args[0], Identifiers: scan.Identifiers, Title: scan.Title}
	var resolved []reference.Reference
	for _, res := range results {
		m := PDFMatch{Query: res.Query, Candidate: res.Candidate}
		if res.Err != nil {
			m.Error = res.Err.Error()
		} else {
			resolved = append(resolved, res.Candidate.Reference)
		}
		out.Results = append(out.Results, m)
	}

	w := cmd.OutOrStdout()
	if pdfBibTeX {
		if len(resolved) == 0 {
			return withCode(ExitNotFound, fmt.Errorf("no identifier in %s could be resolved", args[0]))
		}
		fmt.Fprint(w, export.ToBibTeXList(resolved, e.exportOptions()))
		return nil
	}

	if !humanOutput {
		return outputJSON(w, out)
	}
	if len(scan.Identifiers) == 0 {
		fmt.Fprintf(w, "No identifiers found; searched by title: %s\n", scan.Title)
	}
	for i, m := range out.Results {
		if m.Candidate == nil {
			fmt.Fprintf(w, "%d. %s: %s\n", i+1, m.Query, m.Error)
			continue
		}
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, m.Query, m.Candidate.Label())
	}
	return nil
}
