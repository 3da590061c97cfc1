package main

import (
	"fmt"
	"sort"

	"github.com/matsen/bibref/internal/cache"
	"github.com/matsen/bibref/internal/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the lookup cache",
	Long: `Inspect or clear the vault lookup cache (.bibref/cache/lookups.db).

Identifier lookups are cached for cache_ttl (global config, default 720h).`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lookup cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached lookup",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired lookups",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openVaultCache opens the cache regardless of whether caching is enabled.
func openVaultCache() (*cache.Store, error) {
	e, err := loadEnv(true)
	if err != nil {
		return nil, err
	}
	ttl, err := e.Global.CacheTTLDuration()
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	return cache.Open(config.LookupsPath(e.Root), ttl)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openVaultCache()
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !humanOutput {
		return outputJSON(out, st)
	}
	fmt.Fprintf(out, "Cache: %s\n", st.Path)
	fmt.Fprintf(out, "Entries: %d (%d expired, ttl %s)\n", st.Entries, st.Expired, st.TTL)
	sources := make([]string, 0, len(st.BySource))
	for source := range st.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Fprintf(out, "  %-9s %d\n", source, st.BySource[source])
	}
	if st.Oldest != nil {
		fmt.Fprintf(out, "Oldest: %s\nNewest: %s\n", st.Oldest.Format("2006-01-02 15:04"), st.Newest.Format("2006-01-02 15:04"))
	}
	return nil
}

// CacheResult is the JSON output of cache clear and prune.
type CacheResult struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	return cacheRemove(cmd, "cleared", (*cache.Store).Clear)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	return cacheRemove(cmd, "pruned", (*cache.Store).Prune)
}

func cacheRemove(cmd *cobra.Command, status string, remove func(*cache.Store) (int, error)) error {
	store, err := openVaultCache()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := remove(store)
	if err != nil {
		return err
	}
	if humanOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Cache %s: %d entries removed\n", status, n)
		return nil
	}
	return outputJSON(cmd.OutOrStdout(), CacheResult{Status: status, Removed: n})
}
