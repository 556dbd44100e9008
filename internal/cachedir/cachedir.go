// Package cachedir implements the content-addressed cache directory layout:
// shared/exclusive advisory locking on a lock file kept beside the entry's
// directory, and the "create-or-reuse" atomic publication pattern used by
// both the interpreter cache and the venv cache.
package cachedir

import (
	"os"
	"path/filepath"

	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/pexerr"
)

// LockState is one of the three advisory lock states a CacheDir may hold.
type LockState int

const (
	LockNone LockState = iota
	LockShared
	LockExclusive
)

// CacheDir is a path plus its current advisory lock state on that entry's
// lock file.
type CacheDir struct {
	path  string
	state LockState
	file  *os.File
	log   log.Logger
}

// New returns a CacheDir rooted at path, with no lock held. The directory
// itself is not created; callers needing it to exist should call
// EnsureDir or rely on CreateAtomic.
func New(path string, logger log.Logger) *CacheDir {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &CacheDir{path: path, log: logger}
}

// Path returns the directory's filesystem path.
func (c *CacheDir) Path() string { return c.path }

// State returns the lock's current state.
func (c *CacheDir) State() LockState { return c.state }

// Join produces a sub-directory reference sharing no lock state with its
// parent (the new CacheDir starts at LockNone).
func (c *CacheDir) Join(parts ...string) *CacheDir {
	return New(filepath.Join(append([]string{c.path}, parts...)...), c.log)
}

// EnsureDir creates the directory (and parents) if it does not exist.
func (c *CacheDir) EnsureDir() error {
	return os.MkdirAll(c.path, 0o755)
}

// lockPath returns the advisory lock file's path. It deliberately sits
// beside c.path rather than inside it: CreateAtomic publishes c.path by
// renaming a scratch directory onto it, and rename(2) only replaces a
// directory that is empty, so the entry's own directory must never hold
// anything other than the published content.
func (c *CacheDir) lockPath() string {
	return filepath.Join(filepath.Dir(c.path), "."+filepath.Base(c.path)+".lock")
}

// completeMarker is the file CreateAtomic writes into a scratch directory
// right before publishing it, and checks for on target to decide whether an
// entry is already built. A bare os.Stat(target) is not enough: the
// directory can exist (e.g. just the lock file's former home, or a
// partially-built leftover from a crash) without a finished entry inside it.
const completeMarker = ".pexboot-complete"

func isComplete(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, completeMarker))
	return err == nil
}

// ReadLock acquires a shared lock if none is held, is a no-op if already
// shared, and downgrades if currently exclusive. It returns whether the
// state changed.
func (c *CacheDir) ReadLock() (bool, error) {
	switch c.state {
	case LockShared:
		return false, nil
	case LockNone:
		if err := c.openAndLock(lockSH); err != nil {
			return false, err
		}
		c.state = LockShared
		return true, nil
	default: // LockExclusive
		if err := flock(c.file, lockSH); err != nil {
			return false, pexerr.Wrap(pexerr.KindLockError, c.path, "failed to downgrade lock", err)
		}
		c.state = LockShared
		return true, nil
	}
}

// WriteLock acquires an exclusive lock if none is held, is a no-op if
// already exclusive, and upgrades from shared (which may involve a brief
// release of the shared lock — callers must re-verify any invariant they
// cached during the shared window). It returns whether the state changed.
func (c *CacheDir) WriteLock() (bool, error) {
	switch c.state {
	case LockExclusive:
		return false, nil
	case LockNone:
		if err := c.openAndLock(lockEX); err != nil {
			return false, err
		}
		c.state = LockExclusive
		return true, nil
	default: // LockShared
		if err := flock(c.file, lockEX); err != nil {
			return false, pexerr.Wrap(pexerr.KindLockError, c.path, "failed to upgrade lock", err)
		}
		c.state = LockExclusive
		return true, nil
	}
}

// TryWriteLock attempts a non-blocking exclusive lock, for callers (like
// cache eviction) that must skip entries another process is actively
// using rather than wait for them. ok is false, with a nil error, if the
// entry is currently locked elsewhere.
func (c *CacheDir) TryWriteLock() (ok bool, err error) {
	if c.state == LockExclusive {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.lockPath()), 0o755); err != nil {
		return false, pexerr.Wrap(pexerr.KindLockError, c.path, "failed to create lock directory", err)
	}
	f, err := os.OpenFile(c.lockPath(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return false, pexerr.Wrap(pexerr.KindLockError, c.path, "failed to open lock file", err)
	}
	ok, err = tryExclusiveLock(f)
	if err != nil {
		f.Close()
		return false, pexerr.Wrap(pexerr.KindLockError, c.path, "failed to attempt lock", err)
	}
	if !ok {
		f.Close()
		return false, nil
	}
	if c.state == LockShared && c.file != nil {
		c.file.Close()
	}
	c.file = f
	c.state = LockExclusive
	return true, nil
}

// Unlock releases any held lock and closes the lock file handle.
func (c *CacheDir) Unlock() error {
	if c.state == LockNone {
		return nil
	}
	err := flock(c.file, lockUN)
	closeErr := c.file.Close()
	c.file = nil
	c.state = LockNone
	if err != nil {
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to unlock", err)
	}
	if closeErr != nil {
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to close lock file", closeErr)
	}
	return nil
}

func (c *CacheDir) openAndLock(how int) error {
	if err := os.MkdirAll(filepath.Dir(c.lockPath()), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to create lock directory", err)
	}
	f, err := os.OpenFile(c.lockPath(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to open lock file", err)
	}
	if err := flock(f, how); err != nil {
		f.Close()
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to acquire lock", err)
	}
	c.file = f
	return nil
}

// RemoveLockFile releases and deletes the lock file. CreateAtomic uses it
// when giving up without publishing anything, so a failed build leaves no
// trace beside the entries it didn't create; cache eviction uses it after
// removing an entry's directory, since that removal no longer takes the
// sibling lock file with it.
func (c *CacheDir) RemoveLockFile() error {
	path := c.lockPath()
	if c.file != nil {
		flock(c.file, lockUN)
		c.file.Close()
		c.file = nil
	}
	c.state = LockNone
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return pexerr.Wrap(pexerr.KindLockError, c.path, "failed to remove lock file", err)
	}
	return nil
}

// BuildFunc materializes the contents of a cache entry at scratchDir. It
// must leave scratchDir in a state ready to be renamed into place, and
// return an error (with scratchDir cleaned up by the caller) on any
// failure.
type BuildFunc func(scratchDir string) error

// CreateAtomic implements the "create-or-reuse" pattern described in §4.5:
// under an exclusive lock, check whether target is already a complete entry;
// if not, build into a scratch directory beside it, mark it complete, and
// rename it into place. Either way the directory is left under a shared
// lock on return.
func CreateAtomic(target string, build BuildFunc, logger log.Logger) (*CacheDir, error) {
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, pexerr.Wrap(pexerr.KindLockError, target, "failed to create parent directory", err)
	}

	c := New(target, logger)
	if _, err := c.WriteLock(); err != nil {
		return nil, err
	}

	if isComplete(target) {
		if _, err := c.ReadLock(); err != nil {
			return nil, err
		}
		return c, nil
	}

	scratch, err := os.MkdirTemp(parent, ".scratch-*")
	if err != nil {
		_ = c.RemoveLockFile()
		return nil, pexerr.Wrap(pexerr.KindLockError, target, "failed to create scratch directory", err)
	}

	if err := build(scratch); err != nil {
		os.RemoveAll(scratch)
		_ = c.RemoveLockFile()
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(scratch, completeMarker), nil, 0o644); err != nil {
		os.RemoveAll(scratch)
		_ = c.RemoveLockFile()
		return nil, pexerr.Wrap(pexerr.KindLockError, target, "failed to mark scratch directory complete", err)
	}

	if err := os.Rename(scratch, target); err != nil {
		// A concurrent publisher may have won the race; if the target is
		// now complete, discard our scratch build and reuse theirs.
		if isComplete(target) {
			os.RemoveAll(scratch)
		} else {
			os.RemoveAll(scratch)
			_ = c.RemoveLockFile()
			return nil, pexerr.Wrap(pexerr.KindLockError, target, "failed to publish cache entry", err)
		}
	}

	if _, err := c.ReadLock(); err != nil {
		return nil, err
	}
	return c, nil
}
