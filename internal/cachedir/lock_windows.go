//go:build windows

package cachedir

import (
	"os"

	"golang.org/x/sys/windows"
)

// Windows has no flock(2) equivalent; LockFileEx over the whole file stands
// in for shared/exclusive advisory locks, matching the POSIX state machine.
const (
	lockSH = 0
	lockEX = 1
	lockUN = 2
)

func flock(f *os.File, how int) error {
	handle := windows.Handle(f.Fd())
	var ol windows.Overlapped
	switch how {
	case lockUN:
		return windows.UnlockFileEx(handle, 0, 1, 0, &ol)
	case lockEX:
		return windows.LockFileEx(handle, windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &ol)
	default: // lockSH
		return windows.LockFileEx(handle, 0, 0, 1, 0, &ol)
	}
}

// tryExclusiveLock attempts a non-blocking exclusive lock. ok is false
// (with a nil error) if the file is already locked by another process.
func tryExclusiveLock(f *os.File) (ok bool, err error) {
	handle := windows.Handle(f.Fd())
	var ol windows.Overlapped
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	if lerr := windows.LockFileEx(handle, flags, 0, 1, 0, &ol); lerr != nil {
		if lerr == windows.ERROR_LOCK_VIOLATION {
			return false, nil
		}
		return false, lerr
	}
	return true, nil
}
