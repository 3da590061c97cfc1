package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/reference"
	"github.com/matsen/bibref/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportKeys     string
	exportOutput   string
	exportCrossRef bool
)

func init() {
	exportCmd.Flags().StringVar(&exportKeys, "keys", "", "Export only specified IDs (comma-separated)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportCrossRef, "crossref", false, "Emit linked parent entries for chapters and conference papers")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to BibTeX",
	Long: `Export references in .bibref/refs.jsonl to BibTeX.

Examples:
  bref export
  bref export --keys Vaswani2017-aa,Matsen2018-bp
  bref export -o references.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}

	refs, err := storage.ReadAll(config.RefsPath(e.Root))
	if err != nil {
		return err
	}

	if exportKeys != "" {
		var selected []reference.Reference
		for _, key := range strings.Split(exportKeys, ",") {
			key = strings.TrimSpace(key)
			i, ok := storage.FindByID(refs, key)
			if !ok {
				return withCode(ExitNotFound, fmt.Errorf("unknown key: %s", key))
			}
			selected = append(selected, refs[i])
		}
		refs = selected
	}

	opts := e.exportOptions()
	if cmd.Flags().Changed("crossref") {
		opts.CrossRef = exportCrossRef
	}

	// BibTeX is always text output, never JSON
	bib := export.ToBibTeXList(refs, opts)
	if exportOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), bib)
		return nil
	}

	if err := os.WriteFile(exportOutput, []byte(bib), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	if humanOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d references to %s\n", len(refs), exportOutput)
		return nil
	}
	return outputJSON(cmd.OutOrStdout(), struct {
		Status string `json:"status"`
		Path   string `json:"path"`
		Count  int    `json:"count"`
	}{"exported", exportOutput, len(refs)})
}
