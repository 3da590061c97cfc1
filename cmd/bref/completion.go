package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibref/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(completionCmd)
	configCmd.ValidArgsFunction = completeConfigKeys
	viewCmd.ValidArgsFunction = completeNotes
	insertCmd.ValidArgsFunction = completeNotes
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate completion scripts for your shell.

Bash:
  $ source <(bref completion bash)

Zsh:
  $ bref completion zsh > "${fpath[1]}/_bref"

Fish:
  $ bref completion fish > ~/.config/fish/completions/bref.fish

PowerShell:
  PS> bref completion powershell | Out-String | Invoke-Expression

Config keys and note names in the vault notes folder are completed too.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		default:
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
	},
}

func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}

// completeNotes offers note names from the vault notes folder for the first
// argument, falling back to file completion.
func completeNotes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	e, err := loadEnv(true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}

	entries, err := os.ReadDir(filepath.Join(e.Root, e.Config.NotesFolder))
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".md")
		if entry.IsDir() || name == entry.Name() || !strings.HasPrefix(name, toComplete) {
			continue
		}
		names = append(names, name)
	}
	return names, cobra.ShellCompDirectiveDefault
}
