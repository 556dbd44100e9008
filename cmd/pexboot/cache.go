package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/czex/pexboot/internal/cachedir"
	"github.com/czex/pexboot/internal/log"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear pexboot's venv and interpreter caches",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report entry counts under the cache root",
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cache entries not currently in use",
	RunE:  runCacheClear,
}

var (
	cacheVenvsFlag        bool
	cacheInterpretersFlag bool
)

func init() {
	for _, c := range []*cobra.Command{cacheInfoCmd, cacheClearCmd} {
		c.Flags().BoolVar(&cacheVenvsFlag, "venvs", false, "limit to <cache_root>/venvs")
		c.Flags().BoolVar(&cacheInterpretersFlag, "interpreters", false, "limit to <cache_root>/interpreters")
	}
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// cacheSections resolves which subdirectories the --venvs/--interpreters
// flags select; with neither given, both are selected.
func cacheSections(cacheRoot string) map[string]string {
	all := !cacheVenvsFlag && !cacheInterpretersFlag
	sections := map[string]string{}
	if all || cacheVenvsFlag {
		sections["venvs"] = filepath.Join(cacheRoot, "venvs")
	}
	if all || cacheInterpretersFlag {
		sections["interpreters"] = filepath.Join(cacheRoot, "interpreters")
	}
	return sections
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	for name, dir := range cacheSections(cfg.CacheRoot) {
		count, err := countEntries(dir)
		if err != nil {
			return fmt.Errorf("counting %s: %w", name, err)
		}
		fmt.Printf("%-13s %-40s %d entries\n", name, dir, count)
	}
	return nil
}

func countEntries(dir string) (int, error) {
	roots, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	total := 0
	for _, root := range roots {
		if !root.IsDir() {
			continue
		}
		leaves, err := os.ReadDir(filepath.Join(dir, root.Name()))
		if err != nil {
			return 0, err
		}
		// Each entry's lock file sits beside its directory; count only the
		// directories, as runCacheClear does.
		for _, leaf := range leaves {
			if leaf.IsDir() {
				total++
			}
		}
	}
	return total, nil
}

// runCacheClear removes every entry in the selected sections, skipping
// (and reporting) any entry another process currently holds a lock on —
// the same discipline the installer itself uses before publishing.
func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := log.Default()
	removed, skipped := 0, 0

	for name, dir := range cacheSections(cfg.CacheRoot) {
		roots, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		for _, root := range roots {
			if !root.IsDir() {
				continue
			}
			bucket := filepath.Join(dir, root.Name())
			leaves, err := os.ReadDir(bucket)
			if err != nil {
				return fmt.Errorf("reading %s: %w", bucket, err)
			}
			for _, leaf := range leaves {
				if !leaf.IsDir() {
					continue
				}
				entryPath := filepath.Join(bucket, leaf.Name())
				ok, rerr := clearEntry(entryPath, logger)
				if rerr != nil {
					return fmt.Errorf("clearing %s: %w", entryPath, rerr)
				}
				if ok {
					removed++
				} else {
					skipped++
				}
			}
		}
	}

	fmt.Printf("removed %d entries, skipped %d in use\n", removed, skipped)
	return nil
}

func clearEntry(entryPath string, logger log.Logger) (bool, error) {
	c := cachedir.New(entryPath, logger)
	ok, err := c.TryWriteLock()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := os.RemoveAll(entryPath); err != nil {
		c.Unlock()
		return false, err
	}
	return true, c.RemoveLockFile()
}
