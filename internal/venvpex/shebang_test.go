package venvpex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteShebangsOnlyTouchesPlaceholder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shebang rewriting is POSIX-only")
	}
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cowsay"), []byte("#!python\nprint('moo')\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cowsay-crlf"), []byte("#!python\r\nprint('moo')\r\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "other"), []byte("#!/usr/bin/env bash\necho hi\n"), 0o755))

	require.NoError(t, RewriteShebangs(binDir, "/venv/bin/python"))

	b, err := os.ReadFile(filepath.Join(binDir, "cowsay"))
	require.NoError(t, err)
	assert.Equal(t, "#!/venv/bin/python\nprint('moo')\n", string(b))

	b, err = os.ReadFile(filepath.Join(binDir, "cowsay-crlf"))
	require.NoError(t, err)
	assert.Equal(t, "#!/venv/bin/python\r\nprint('moo')\r\n", string(b))

	b, err = os.ReadFile(filepath.Join(binDir, "other"))
	require.NoError(t, err)
	assert.Equal(t, "#!/usr/bin/env bash\necho hi\n", string(b))
}

func TestRewriteShebangsMissingDirIsNoop(t *testing.T) {
	err := RewriteShebangs(filepath.Join(t.TempDir(), "missing"), "/venv/bin/python")
	assert.NoError(t, err)
}
