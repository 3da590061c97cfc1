// Package main provides the bref CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/bibref/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	vaultFlag   string

	logger = zap.NewNop()
)

func main() {
	_ = godotenv.Load()

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		writeError(os.Stderr, os.Stdout, err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "bref",
	Short: "Resolve arXiv ids and DOIs into BibTeX and reference notes",
	Long: `bref resolves arXiv ids, DOIs and free-text queries against arXiv and
Crossref, formats the result as BibTeX and writes reference notes into a
markdown vault.

Commands output JSON by default for easy scripting; pass --human for
readable text. BibTeX and rendered notes are always plain text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.Must(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and cache activity to stderr")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Vault root (default: search upward from the working directory, then vault_path)")
	rootCmd.Version = Version
}
