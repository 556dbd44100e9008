//go:build unix

package cachedir

import (
	"os"

	"golang.org/x/sys/unix"
)

func flock(f *os.File, how int) error {
	return unix.Flock(int(f.Fd()), how)
}

// tryExclusiveLock attempts a non-blocking exclusive lock. ok is false
// (with a nil error) if the file is already locked by another process.
func tryExclusiveLock(f *os.File) (ok bool, err error) {
	if ferr := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); ferr != nil {
		if ferr == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, ferr
	}
	return true, nil
}

const (
	lockSH = unix.LOCK_SH
	lockEX = unix.LOCK_EX
	lockUN = unix.LOCK_UN
)
