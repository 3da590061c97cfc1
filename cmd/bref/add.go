package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addPick  int
	addForce bool
	addBib   bool
)

// appendRef records a new library entry. Tests override it.
var appendRef = storage.Append

var addCmd = &cobra.Command{
	Use:   "add <query>...",
	Short: "Resolve a reference, write its note and record it in the library",
	Long: `Resolve a query, write a reference note into the notes folder and record
the reference in .bibref/refs.jsonl.

A reference already in the library (same DOI or arXiv id) is refused unless
--force is given, in which case the entry and its note are replaced and keep
their cite key.

Examples:
  bref add 1706.03762
  bref add 10.1093/sysbio/syy032 --bib
  bref add attention is all you need --pick 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().IntVar(&addPick, "pick", 0, "Choose candidate N (1-based) without prompting")
	addCmd.Flags().BoolVar(&addForce, "force", false, "Replace an existing library entry and note")
	addCmd.Flags().BoolVar(&addBib, "bib", false, "Also append the entry to the vault .bib file")
	rootCmd.AddCommand(addCmd)
}

// AddResult is the JSON output of add.
type AddResult struct {
	Status  string `json:"status"` // added or replaced
	ID      string `json:"id"`
	Note    string `json:"note"`
	BibFile string `json:"bib_file,omitempty"`
	Title   string `json:"title"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	r, cleanup, err := e.newResolver()
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := resolveOne(cmd.Context(), cmd, r, joinQuery(args), addPick)
	if err != nil {
		return err
	}
	ref := c.Reference

	refsPath := config.RefsPath(e.Root)
	refs, err := storage.ReadAll(refsPath)
	if err != nil {
		return err
	}

	status := "added"
	dup, exists := storage.FindDuplicate(refs, ref)
	switch {
	case exists && !addForce:
		return fmt.Errorf("%w as %s (use --force to replace)", errDuplicate, refs[dup].ID)
	case exists:
		ref.ID = refs[dup].ID
		refs[dup] = ref
		status = "replaced"
	default:
		ref.ID = export.GenerateUniqueKey(storage.IDs(refs), ref.ID)
		refs = append(refs, ref)
	}

	opts := e.exportOptions()
	bib := export.ToBibTeX(ref, opts)

	v, err := e.newVault()
	if err != nil {
		return err
	}
	notePath, err := v.WriteNote(ref, bib, addForce)
	if err != nil {
		return err
	}

	if status == "added" {
		err = appendRef(refsPath, ref)
	} else {
		err = storage.WriteAll(refsPath, refs)
	}
	if err != nil {
		// A note without a library entry would block the retry.
		if status == "added" {
			if rmErr := os.Remove(notePath); rmErr != nil {
				logger.Warn("removing note", zap.String("path", notePath), zap.Error(rmErr))
			}
		}
		return err
	}
	logger.Debug("library updated", zap.String("id", ref.ID), zap.String("status", status))

	result := AddResult{Status: status, ID: ref.ID, Note: notePath, Title: ref.Title}
	if addBib {
		bibPath, appended, err := appendToBib(e, ref.ID, ref.DOI, bib)
		if err != nil {
			return err
		}
		if appended {
			result.BibFile = bibPath
		}
	}

	out := cmd.OutOrStdout()
	if humanOutput {
		fmt.Fprintf(out, "%s %s: %s\n", status, ref.ID, ref.Title)
		fmt.Fprintf(out, "  note: %s\n", notePath)
		if result.BibFile != "" {
			fmt.Fprintf(out, "  bib:  %s\n", result.BibFile)
		}
		return nil
	}
	return outputJSON(out, result)
}

// appendToBib adds bib to the vault .bib file unless an entry with the same
// key or DOI is already there.
func appendToBib(e *env, key, doi, bib string) (string, bool, error) {
	if e.Config.BibFile == "" {
		return "", false, withCode(ExitConfigError, fmt.Errorf("bib_file is not set (bref config bib_file references.bib)"))
	}
	path := e.Config.BibFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Root, path)
	}

	idx, err := export.ParseBibTeXFile(path)
	if err != nil {
		return "", false, err
	}
	if idx.HasEntry(key, doi) {
		logger.Info("entry already in bib file", zap.String("id", key), zap.String("path", path))
		return path, false, nil
	}
	if err := export.AppendToBibFile(path, bib); err != nil {
		return "", false, fmt.Errorf("appending to %s: %w", path, err)
	}
	return path, true, nil
}
