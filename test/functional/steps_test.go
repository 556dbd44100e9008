package functional

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// aCowsayArchiveAndFakeInterpreter builds a minimal .pex archive (an empty
// distributions manifest is enough: the fake interpreter below synthesizes
// cowsay's output itself rather than importing a real package) and a
// POSIX-shell interpreter that answers both invocation shapes pexboot uses:
// the identification probe (`-sE -c <script> <outfile>`) and the venv
// launcher hand-off (`<python> <main.py> [args...]`).
func aCowsayArchiveAndFakeInterpreter(ctx context.Context) (context.Context, error) {
	if runtime.GOOS == "windows" {
		return ctx, fmt.Errorf("shell-script fake interpreter is POSIX-only")
	}
	state := getState(ctx)

	dir := filepath.Dir(state.cacheRoot)

	pythonPath := filepath.Join(dir, "fake-python")
	script := `#!/bin/sh
if [ "$1" = "-sE" ]; then
  shift 3
  outfile="$1"
  cat > "$outfile" <<'JSON'
{"prefix":"/usr","base_prefix":"/usr","major":3,"minor":11,"micro":2,"release_level":"final","platform":{"os":"linux","machine":"x86_64","implementation":"CPython","full_version":"3.11.2"},"is_framework_build":false,"has_ensurepip":true,"tags":[{"python":"cp311","abi":"cp311","platform":"manylinux_2_17_x86_64"}]}
JSON
  exit 0
fi

shift
text="Moo!"
while [ $# -gt 0 ]; do
  case "$1" in
    -t) text="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo "$text"
`
	if err := os.WriteFile(pythonPath, []byte(script), 0o755); err != nil {
		return ctx, err
	}
	state.pythonPath = pythonPath

	archivePath := filepath.Join(dir, "cowsay.pex")
	f, err := os.Create(archivePath)
	if err != nil {
		return ctx, err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("PEX-INFO")
	if err != nil {
		return ctx, err
	}
	pexInfo := `{
  "pex_hash": "da39a3ee5e6b4b0d3255bfef95601890afd80709",
  "distributions": {},
  "requirements": [],
  "interpreter_constraints": [],
  "venv_system_site_packages": false,
  "venv_hermetic_scripts": false,
  "venv_bin_path": "false",
  "strip_pex_env": true,
  "inject_env": {},
  "inject_args": [],
  "entry_point": "cowsay.main",
  "script": null
}`
	if _, err := w.Write([]byte(pexInfo)); err != nil {
		return ctx, err
	}
	if err := zw.Close(); err != nil {
		return ctx, err
	}
	state.archivePath = archivePath

	return ctx, nil
}

func iBootTheArchiveWithArgs(ctx context.Context, argsStr string) (context.Context, error) {
	state := getState(ctx)

	args := append([]string{"boot", state.pythonPath, state.archivePath}, strings.Fields(argsStr)...)
	cmd := exec.Command(state.binPath, args...)
	cmd.Env = append(os.Environ(), "PEXBOOT_CACHE_DIR="+state.cacheRoot)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("running pexboot boot: %w", err)
		}
	} else {
		state.exitCode = 0
	}
	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

// venvEntryPath returns the sole venv directory under <cache_root>/venvs/0,
// without recomputing pexboot's cache-key formula: there's exactly one
// archive/interpreter pair in play, so exactly one entry should exist.
func venvEntryPath(cacheRoot string) (string, error) {
	bucketsDir := filepath.Join(cacheRoot, "venvs", "0")
	entries, err := os.ReadDir(bucketsDir)
	if err != nil {
		return "", err
	}
	// Each entry's lock file sits beside its directory; only directories
	// are venv entries.
	var buckets []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			buckets = append(buckets, e)
		}
	}
	if len(buckets) != 1 {
		return "", fmt.Errorf("expected exactly one venv entry, found %d", len(buckets))
	}
	return filepath.Join(bucketsDir, buckets[0].Name()), nil
}

func aVenvCacheEntryNowExists(ctx context.Context) error {
	state := getState(ctx)
	path, err := venvEntryPath(state.cacheRoot)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func iRecordTheVenvRootsMtime(ctx context.Context) error {
	state := getState(ctx)
	path, err := venvEntryPath(state.cacheRoot)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	state.venvMtime = info.ModTime()
	return nil
}

func theVenvRootsMtimeIsUnchanged(ctx context.Context) error {
	state := getState(ctx)
	path, err := venvEntryPath(state.cacheRoot)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.ModTime().Equal(state.venvMtime) {
		return fmt.Errorf("venv root mtime changed: was %v, now %v", state.venvMtime, info.ModTime())
	}
	return nil
}

func noNewScratchDirectoryWasLeftBehind(ctx context.Context) error {
	state := getState(ctx)
	bucketsDir := filepath.Join(state.cacheRoot, "venvs", "0")
	entries, err := os.ReadDir(bucketsDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".scratch-") {
			return fmt.Errorf("leftover scratch directory %s", e.Name())
		}
	}
	return nil
}
