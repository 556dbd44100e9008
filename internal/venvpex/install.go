package venvpex

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/pexzip"
)

// Extract parallel-extracts every archive entry under .deps/<wheel>/ (for
// every selected wheel) into sitePackagesDir.
func Extract(archive *pexzip.Archive, wheels []SelectedWheel, sitePackagesDir string) error {
	if len(wheels) == 0 {
		return nil
	}
	prefixes := make([]string, len(wheels))
	for i, w := range wheels {
		prefixes[i] = ".deps/" + w.Filename + "/"
	}
	predicate := func(name string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}
	return archive.ParallelExtract(sitePackagesDir, predicate, pexzip.ParallelExtractOptions{})
}

// Spread relocates each wheel's extracted subtree per §4.7 step 3: its
// .prefix/ subtree (if any) is relocated relative to venvRoot; everything
// else is merged directly into sitePackagesDir; .layout.json sidecars are
// skipped.
func Spread(wheels []SelectedWheel, sitePackagesDir, venvRoot string) error {
	for _, w := range wheels {
		wheelDir := filepath.Join(sitePackagesDir, ".deps", w.Filename)
		if err := spreadOne(wheelDir, sitePackagesDir, venvRoot); err != nil {
			return err
		}
	}
	return nil
}

func spreadOne(wheelDir, sitePackagesDir, venvRoot string) error {
	entries, err := os.ReadDir(wheelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, wheelDir, "failed to read extracted wheel directory", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		src := filepath.Join(wheelDir, name)
		switch {
		case name == ".layout.json":
			continue
		case name == ".prefix":
			if err := mergeTree(src, venvRoot); err != nil {
				return err
			}
		default:
			if err := mergeInto(src, filepath.Join(sitePackagesDir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeInto moves src to dst; if dst is a directory and src is a
// directory, their contents are merged recursively rather than one
// replacing the other (rename would otherwise fail or clobber).
func mergeInto(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, src, "failed to stat spread source", err)
	}

	if !srcInfo.IsDir() {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return pexerr.Wrap(pexerr.KindZipEntryMetadataError, dst, "failed to create destination parent", err)
		}
		return renameOrCopy(src, dst)
	}

	if dstInfo, err := os.Stat(dst); err == nil && dstInfo.IsDir() {
		children, err := os.ReadDir(src)
		if err != nil {
			return pexerr.Wrap(pexerr.KindZipEntryMetadataError, src, "failed to read directory to merge", err)
		}
		for _, child := range children {
			if err := mergeInto(filepath.Join(src, child.Name()), filepath.Join(dst, child.Name())); err != nil {
				return err
			}
		}
		return os.Remove(src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, dst, "failed to create destination parent", err)
	}
	return renameOrCopy(src, dst)
}

// mergeTree relocates a .prefix/ subtree's contents directly under root,
// creating directories and merging as needed — it is mergeInto applied to
// every top-level child of src rather than to src itself.
func mergeTree(src, root string) error {
	children, err := os.ReadDir(src)
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, src, "failed to read .prefix directory", err)
	}
	for _, child := range children {
		if err := mergeInto(filepath.Join(src, child.Name()), filepath.Join(root, child.Name())); err != nil {
			return err
		}
	}
	return os.RemoveAll(src)
}

func renameOrCopy(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Cross-device rename failures fall back to copy+remove.
	data, err := os.ReadFile(src)
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, src, "failed to read file for cross-device move", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, src, "failed to stat file for cross-device move", err)
	}
	if err := os.WriteFile(dst, data, info.Mode()); err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, dst, "failed to write file for cross-device move", err)
	}
	return os.Remove(src)
}

// Cleanup recursively deletes the .deps directory left behind under
// sitePackagesDir after Spread.
func Cleanup(sitePackagesDir string) error {
	return os.RemoveAll(filepath.Join(sitePackagesDir, ".deps"))
}
