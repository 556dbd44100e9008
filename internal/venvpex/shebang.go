package venvpex

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
)

const shebangPlaceholder = "#!python"

// RewriteShebangs rewrites every script in binDir whose first line is
// exactly "#!python" (with an optional trailing \r) so it invokes
// destPython instead, per §4.7 step 5. Scripts not starting with the
// placeholder are left untouched. Each rewrite is atomic: a temp file is
// written, marked executable, then renamed over the original.
func RewriteShebangs(binDir, destPython string) error {
	if runtime.GOOS == "windows" {
		// Windows launcher scripts use exe wrappers, not text shebangs.
		return nil
	}

	entries, err := os.ReadDir(binDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, binDir, "failed to list bin directory", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(binDir, entry.Name())
		if err := rewriteOne(path, destPython); err != nil {
			return err
		}
	}
	return nil
}

func rewriteOne(path, destPython string) error {
	f, err := os.Open(path)
	if err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to open script for shebang check", err)
	}
	reader := bufio.NewReader(f)
	firstLine, err := reader.ReadString('\n')
	rest, readRestErr := io.ReadAll(reader)
	f.Close()
	if err != nil && err != io.EOF {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to read first line", err)
	}
	if readRestErr != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to read script body", readRestErr)
	}

	trimmed := strings.TrimSuffix(firstLine, "\n")
	hasCR := strings.HasSuffix(trimmed, "\r")
	bare := strings.TrimSuffix(trimmed, "\r")
	if bare != shebangPlaceholder {
		return nil
	}

	newShebang := "#!" + destPython
	if hasCR {
		newShebang += "\r"
	}
	newShebang += "\n"

	var buf bytes.Buffer
	buf.WriteString(newShebang)
	buf.Write(rest)

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".rewrite")
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to write rewritten script", err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		os.Remove(tmpPath)
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to mark rewritten script executable", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to publish rewritten script", err)
	}
	return nil
}
