package main

import (
	"fmt"

	"github.com/matsen/bibref/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set vault configuration values",
	Long: `Get or set vault configuration values.

Usage:
  bref config                          # Show all config
  bref config notes_folder             # Get specific value
  bref config notes_folder papers      # Set value
  bref config crossref_linking true    # Emit linked parent entries

Keys:
  notes_folder      Folder for reference notes, relative to the vault
  bib_file          .bib file updated by 'bref add --bib'
  note_template     text/template file for note bodies
  crossref_linking  Emit @proceedings/@book parents linked by crossref
  month_names       Write months as jan..dec macros
  include_abstract  Include abstracts in BibTeX
  cite_key_pattern  Cite key pattern, e.g. {last}{year}-{suffix}`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch len(args) {
	case 0:
		if humanOutput {
			for _, key := range config.Keys() {
				v, _ := e.Config.Get(key)
				fmt.Fprintf(out, "%-17s %s\n", key, v)
			}
			return nil
		}
		return outputJSON(out, e.Config)

	case 1:
		v, err := e.Config.Get(args[0])
		if err != nil {
			return err
		}
		if humanOutput {
			fmt.Fprintln(out, v)
			return nil
		}
		return outputJSON(out, map[string]string{args[0]: v})
	}

	key, value := args[0], args[1]
	if err := e.Config.Set(key, value); err != nil {
		return withCode(ExitConfigError, err)
	}
	if err := e.Config.Save(e.Root); err != nil {
		return err
	}

	stored, _ := e.Config.Get(key)
	if humanOutput {
		fmt.Fprintf(out, "Set %s = %s\n", key, stored)
		return nil
	}
	return outputJSON(out, UpdateResponse{Status: "updated", Key: key, Value: stored})
}
