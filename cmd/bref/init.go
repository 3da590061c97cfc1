package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/bibref/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a bibref vault",
	Long: `Initialize a bibref vault in the given directory (default: current directory).

Creates:
  .bibref/
  ├── refs.jsonl      # Library of added references
  ├── config.json     # Default config
  └── cache/          # Lookup cache and search index (safe to delete)
  references/         # Notes folder`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if config.IsVault(root) {
		return fmt.Errorf("directory already contains a bibref vault: %s", root)
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating .bibref directory: %w", err)
	}

	refsFile, err := os.Create(config.RefsPath(root))
	if err != nil {
		return fmt.Errorf("creating refs.jsonl: %w", err)
	}
	refsFile.Close()

	if err := os.WriteFile(filepath.Join(config.VaultPath(root), ".gitignore"), []byte(config.CacheDir+"/\n"), 0644); err != nil {
		return fmt.Errorf("creating .gitignore: %w", err)
	}

	cfg := config.Default()
	if err := cfg.Save(root); err != nil {
		return fmt.Errorf("creating config.json: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, cfg.NotesFolder), 0755); err != nil {
		return fmt.Errorf("creating notes folder: %w", err)
	}

	if humanOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized bibref vault in %s\n", root)
		return nil
	}
	return outputJSON(cmd.OutOrStdout(), StatusResponse{Status: "initialized", Path: root})
}
