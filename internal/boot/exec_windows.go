//go:build windows

package boot

import (
	"os"
	"os/exec"
)

// exec has no true execve equivalent on Windows: it spawns venvPython as a
// child, waits for it, and translates the result into the exit code the
// caller should itself exit with. A signal-terminated child has no
// meaningful exit code here and is reported as -1; a child that could not
// even be started is reported as -75, and one whose exit status can't be
// decoded at all as -76.
func exec(venvPython string, argv []string, env []string) (int, error) {
	cmd := exec.Command(venvPython, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -75, err
	}
	if exitErr.ProcessState == nil {
		return -76, nil
	}
	if exitErr.ProcessState.Exited() {
		return exitErr.ExitCode(), nil
	}
	return -1, nil
}
