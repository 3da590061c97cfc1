package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/vault"
	"github.com/spf13/cobra"
)

var insertPick int

var insertCmd = &cobra.Command{
	Use:   "insert <note> <query>...",
	Short: "Append a BibTeX block for a reference to an existing note",
	Long: `Resolve a query and append its BibTeX as a fenced bibtex block at the
end of an existing note.

The note may be a path, or a name inside the vault notes folder (the .md
extension is optional).

Examples:
  bref insert drafts/intro.md 1706.03762
  bref insert Vaswani2017-aa 10.1093/sysbio/syy032`,
	Args: cobra.MinimumNArgs(2),
	RunE: runInsert,
}

func init() {
	insertCmd.Flags().IntVar(&insertPick, "pick", 0, "Choose candidate N (1-based) without prompting")
	rootCmd.AddCommand(insertCmd)
}

// InsertResult is the JSON output of insert.
type InsertResult struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Key    string `json:"key"`
}

func runInsert(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}

	notePath, err := findNote(e, args[0])
	if err != nil {
		return err
	}

	r, cleanup, err := e.newResolver()
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := resolveOne(cmd.Context(), cmd, r, joinQuery(args[1:]), insertPick)
	if err != nil {
		return err
	}

	bib := export.ToBibTeX(c.Reference, e.exportOptions())
	if err := vault.AppendBlock(notePath, bib); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if humanOutput {
		fmt.Fprintf(out, "Inserted %s into %s\n", c.Reference.ID, notePath)
		return nil
	}
	return outputJSON(out, InsertResult{Status: "inserted", Note: notePath, Key: c.Reference.ID})
}

// findNote resolves a note argument: an existing path first, then a name in
// the vault notes folder.
func findNote(e *env, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	if e.Root != "" {
		candidate := filepath.Join(e.Root, e.Config.NotesFolder, name)
		if !strings.HasSuffix(candidate, ".md") {
			candidate += ".md"
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", vault.ErrNoteNotFound, name)
}
