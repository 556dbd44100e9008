// Package pexzip is the archive layer: opening a PEX archive, locating
// entries, and extracting them either serially or with a bounded worker
// pool per §4.4 of the design.
package pexzip

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/czex/pexboot/internal/pexerr"
)

// Archive is a read-only view over a PEX zip archive.
type Archive struct {
	path string
	r    *zip.ReadCloser
}

// Open opens path as a zip archive (ZIP64 supported transparently by the
// underlying reader).
func Open(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindZipOpenError, path, "failed to open archive", err)
	}
	return &Archive{path: path, r: r}, nil
}

// Close releases the archive's underlying file handle.
func (a *Archive) Close() error {
	return a.r.Close()
}

// NumEntries returns the count of entries in the archive's central
// directory.
func (a *Archive) NumEntries() int {
	return len(a.r.File)
}

// ExtractToSlice reads a single named entry fully into memory, or returns
// (nil, false) if no entry with that name exists.
func (a *Archive) ExtractToSlice(name string) ([]byte, bool, error) {
	f := a.find(name)
	if f == nil {
		return nil, false, nil
	}
	b, err := readEntry(f)
	if err != nil {
		return nil, false, pexerr.Wrap(pexerr.KindZipFileReadError, name, "failed to read entry", err)
	}
	return b, true, nil
}

// ExtractToDir extracts a single named entry under destDir, at the entry's
// own archive path relative to destDir, creating parent directories as
// needed.
func (a *Archive) ExtractToDir(name, destDir string) error {
	f := a.find(name)
	if f == nil {
		return pexerr.New(pexerr.KindZipEntryNotFound, name, "entry not found in archive")
	}
	return extractEntryTo(f, destDir, name)
}

func (a *Archive) find(name string) *zip.File {
	for _, f := range a.r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// extractEntryTo writes a single zip entry's content under destDir,
// preserving the portion of its path relative to destDir's root. name is
// the entry's full path within the archive and is used only for error
// messages; directory entries are detected from f itself.
func extractEntryTo(f *zip.File, destDir, name string) error {
	target := filepath.Join(destDir, filepath.FromSlash(relativeEntryPath(f.Name)))
	if !isPathWithinDirectory(target, destDir) {
		return pexerr.New(pexerr.KindZipEntryMetadataError, name, "entry escapes destination directory")
	}

	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindZipEntryMetadataError, name, "failed to create parent directory", err)
	}

	rc, err := f.Open()
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipFileOpenError, name, "failed to open entry stream", err)
	}
	defer rc.Close()

	mode := f.Mode()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return pexerr.Wrap(pexerr.KindZipFileOpenError, name, "failed to create destination file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return pexerr.Wrap(pexerr.KindZipFileReadError, name, "failed to copy entry content", err)
	}
	return nil
}

func relativeEntryPath(name string) string {
	return strings.TrimPrefix(name, "/")
}

func isPathWithinDirectory(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// Predicate decides whether a given archive entry name should be extracted.
type Predicate func(name string) bool

// ParallelExtractOptions tunes the worker pool used by ParallelExtract.
type ParallelExtractOptions struct {
	// Workers overrides the default worker count (min(NumEntries, NumCPU)).
	// A value below 2 degrades to serial extraction.
	Workers int
}

// ParallelExtract extracts every entry matching predicate into destDir. One
// independent zip.ReadCloser is opened per worker so workers never share a
// file handle; the main goroutine walks the central directory once and
// dispatches matching entries round-robin by worker id. The first worker
// error is recorded in a shared atomic slot; other workers observe it and
// stop picking up new work, and the error is returned to the caller once
// all in-flight work has drained.
func (a *Archive) ParallelExtract(destDir string, predicate Predicate, opts ParallelExtractOptions) error {
	var matched []*zip.File
	for _, f := range a.r.File {
		if predicate(f.Name) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(matched) {
		workers = len(matched)
	}
	if workers < 2 {
		return a.extractSerially(matched, destDir)
	}

	handles := make([]*zip.ReadCloser, workers)
	for i := range handles {
		r, err := zip.OpenReader(a.path)
		if err != nil {
			for j := 0; j < i; j++ {
				handles[j].Close()
			}
			return pexerr.Wrap(pexerr.KindZipOpenError, a.path, "failed to open per-worker handle", err)
		}
		handles[i] = r
	}
	defer func() {
		for _, h := range handles {
			h.Close()
		}
	}()

	var errSlot errorSlot
	var wg sync.WaitGroup
	buckets := make([][]*zip.File, workers)
	for i, f := range matched {
		w := i % workers
		buckets[w] = append(buckets[w], f)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			handle := handles[w]
			for _, f := range buckets[w] {
				if errSlot.isSet() {
					return
				}
				entry := findByName(handle, f.Name)
				if entry == nil {
					errSlot.trySet(pexerr.New(pexerr.KindZipEntryNotFound, f.Name, "entry vanished from worker handle"))
					return
				}
				if err := extractEntryTo(entry, destDir, f.Name); err != nil {
					errSlot.trySet(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	return errSlot.get()
}

// errorSlot is the "single shared atomic error slot" workers report into:
// the first writer wins and later writes are discarded.
type errorSlot struct {
	mu  sync.Mutex
	err error
}

func (s *errorSlot) isSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

func (s *errorSlot) trySet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *errorSlot) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (a *Archive) extractSerially(entries []*zip.File, destDir string) error {
	for _, f := range entries {
		if err := extractEntryTo(f, destDir, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func findByName(r *zip.ReadCloser, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
