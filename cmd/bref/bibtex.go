package main

import (
	"fmt"
	"strings"

	"github.com/matsen/bibref/internal/clipboard"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/reference"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bibtexCrossRef bool
	bibtexCopy     bool
	bibtexPick     int

	// copier is swapped out in tests.
	copier clipboard.Copier = clipboard.System{}
)

var bibtexCmd = &cobra.Command{
	Use:   "bibtex <query>...",
	Short: "Print BibTeX for one or more references",
	Long: `Resolve queries and print BibTeX.

When every argument is an identifier, each one is resolved separately and
the entries are printed together. Otherwise the arguments form a single
free-text query; use --pick N (or the interactive picker) to choose among
the matches.

BibTeX is always text output, never JSON.

Examples:
  bref bibtex 1706.03762
  bref bibtex 1706.03762 10.1093/sysbio/syy032 > refs.bib
  bref bibtex 10.1145/3292500.3330701 --crossref
  bref bibtex attention is all you need --pick 1 --copy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBibTeX,
}

func init() {
	bibtexCmd.Flags().BoolVar(&bibtexCrossRef, "crossref", false, "Emit linked parent entries for chapters and conference papers")
	bibtexCmd.Flags().BoolVar(&bibtexCopy, "copy", false, "Also copy the BibTeX to the clipboard")
	bibtexCmd.Flags().IntVar(&bibtexPick, "pick", 0, "Choose candidate N (1-based) without prompting")
	rootCmd.AddCommand(bibtexCmd)
}

// allIdentifiers reports whether every argument classifies as an identifier.
func allIdentifiers(args []string) bool {
	if len(args) < 2 {
		return false
	}
	for _, a := range args {
		id, err := ident.Classify(a)
		if err != nil || !id.IsIdentifier() {
			return false
		}
	}
	return true
}

func runBibTeX(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	r, cleanup, err := e.newResolver()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := e.exportOptions()
	if cmd.Flags().Changed("crossref") {
		opts.CrossRef = bibtexCrossRef
	}

	var refs []reference.Reference
	if allIdentifiers(args) {
		results, err := r.ResolveAll(cmd.Context(), args)
		if err != nil {
			return err
		}
		var failed []string
		for _, res := range results {
			if res.Err != nil {
				logger.Warn("could not resolve", zap.String("query", res.Query), zap.Error(res.Err))
				failed = append(failed, res.Query)
				continue
			}
			refs = append(refs, res.Candidate.Reference)
		}
		if len(refs) == 0 {
			return results[0].Err
		}
		if len(failed) > 0 {
			defer func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not resolve %s\n", strings.Join(failed, ", "))
			}()
		}
	} else {
		c, err := resolveOne(cmd.Context(), cmd, r, joinQuery(args), bibtexPick)
		if err != nil {
			return err
		}
		refs = append(refs, c.Reference)
	}

	bib := export.ToBibTeXList(refs, opts)
	fmt.Fprint(cmd.OutOrStdout(), bib)

	if bibtexCopy {
		if err := copier.Copy(bib); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		if humanOutput {
			fmt.Fprintf(cmd.ErrOrStderr(), "Copied %d entries to clipboard\n", len(refs))
		}
	}
	return nil
}
