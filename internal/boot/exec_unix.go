//go:build unix

package boot

import "syscall"

// exec replaces the current process image with venvPython, argv. On
// success it never returns: the calling process is gone. On failure it
// falls back to returning the error so callers can report it the way any
// other boot failure is reported.
func exec(venvPython string, argv []string, env []string) (int, error) {
	err := syscall.Exec(venvPython, argv, env)
	return 0, err
}
