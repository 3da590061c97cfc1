package main

import (
	"fmt"

	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/reference"
	"github.com/matsen/bibref/internal/resolve"
	"github.com/matsen/bibref/internal/storage"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>...",
	Short: "Resolve a query and list candidate references",
	Long: `Resolve an arXiv id, DOI or free-text query and list the candidates
without writing anything.

Supported query formats:
  1706.03762, arXiv:1706.03762v2    arXiv id (new or old style)
  https://arxiv.org/abs/1706.03762  arXiv URL
  10.1093/sysbio/syy032             DOI
  https://doi.org/10.1093/...       DOI URL
  attention is all you need         free text (searches arXiv and Crossref)

Examples:
  bref lookup 1706.03762
  bref lookup 10.1093/sysbio/syy032 --human
  bref lookup variational phylogenetics --human
  bref lookup variational phylogenetics --limit 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var lookupLimit int

func init() {
	lookupCmd.Flags().IntVarP(&lookupLimit, "limit", "n", resolve.DefaultSearchLimit, "Results per source for free-text queries")
	rootCmd.AddCommand(lookupCmd)
}

// CandidateResult is one row of lookup output.
type CandidateResult struct {
	Index     int                 `json:"index"`
	Key       string              `json:"key"`
	Source    string              `json:"source"`
	Score     float64             `json:"score"`
	Label     string              `json:"label"`
	InLibrary string              `json:"in_library,omitempty"` // ID of the matching library entry
	Reference reference.Reference `json:"reference"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	r, cleanup, err := e.newResolver(resolve.WithSearchLimit(lookupLimit))
	if err != nil {
		return err
	}
	defer cleanup()

	cands, err := r.Resolve(cmd.Context(), joinQuery(args))
	if err != nil {
		return err
	}

	var library []reference.Reference
	if e.Root != "" {
		if library, err = storage.ReadAll(config.RefsPath(e.Root)); err != nil {
			return err
		}
	}

	results := make([]CandidateResult, len(cands))
	for i, c := range cands {
		results[i] = CandidateResult{
			Index:     i + 1,
			Key:       c.Reference.ID,
			Source:    c.Source,
			Score:     c.Score,
			Label:     c.Label(),
			Reference: c.Reference,
		}
		if j, ok := storage.FindDuplicate(library, c.Reference); ok {
			results[i].InLibrary = library[j].ID
		}
	}

	out := cmd.OutOrStdout()
	if !humanOutput {
		return outputJSON(out, results)
	}
	for _, res := range results {
		fmt.Fprintf(out, "%d. %s\n", res.Index, truncateString(res.Label, CandidateTitleMaxLen))
		fmt.Fprintf(out, "   key: %s", res.Key)
		if res.InLibrary != "" {
			fmt.Fprintf(out, "  (in library as %s)", res.InLibrary)
		}
		fmt.Fprintln(out)
	}
	return nil
}
