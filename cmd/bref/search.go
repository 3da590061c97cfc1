package main

import (
	"fmt"
	"os"

	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/reference"
	"github.com/matsen/bibref/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	searchLimit   int
	searchRebuild bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search the local library",
	Long: `Full-text search over titles, abstracts, authors, venues and keywords of
references already in the library. A bare year (e.g. 2017) lists that
year's references.

The search index lives in .bibref/cache/refs.db and is rebuilt from
refs.jsonl whenever the library changes.

Examples:
  bref search transformer
  bref search vaswani attention --human
  bref search 2018`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results")
	searchCmd.Flags().BoolVar(&searchRebuild, "rebuild", false, "Rebuild the index before searching")
	rootCmd.AddCommand(searchCmd)
}

// SearchResult is one row of search output.
type SearchResult struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Authors []reference.Author `json:"authors"`
	Year    int                `json:"year"`
	Venue   string             `json:"venue,omitempty"`
	DOI     string             `json:"doi,omitempty"`
	ArXivID string             `json:"arxiv_id,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}

	db, err := openIndex(e.Root, searchRebuild)
	if err != nil {
		return err
	}
	defer db.Close()

	refs, err := db.Search(joinQuery(args), searchLimit)
	if err != nil {
		return err
	}

	results := make([]SearchResult, len(refs))
	for i, ref := range refs {
		results[i] = SearchResult{
			ID:      ref.ID,
			Title:   ref.Title,
			Authors: ref.Authors,
			Year:    ref.Published.Year,
			Venue:   ref.Venue,
			DOI:     ref.DOI,
			ArXivID: ref.ArXivID,
		}
	}

	out := cmd.OutOrStdout()
	if !humanOutput {
		return outputJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches")
		return nil
	}
	for i, r := range results {
		first := ""
		if len(r.Authors) > 0 {
			first = r.Authors[0].Last
		}
		fmt.Fprintf(out, "%d. %s  %s (%d) %s\n", i+1, r.ID, first, r.Year, truncateString(r.Title, SearchTitleMaxLen))
	}
	return nil
}

// openIndex opens the search index, rebuilding it when refs.jsonl is newer.
func openIndex(root string, force bool) (*storage.DB, error) {
	dbPath := config.DBPath(root)
	refsPath := config.RefsPath(root)

	stale := force
	dbInfo, err := os.Stat(dbPath)
	if err != nil {
		stale = true
	} else if refsInfo, err := os.Stat(refsPath); err == nil && refsInfo.ModTime().After(dbInfo.ModTime()) {
		stale = true
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	if stale {
		n, err := db.RebuildFromJSONL(refsPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("search index rebuilt", zap.Int("refs", n))
	}
	return db, nil
}
