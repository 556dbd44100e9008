package venvpex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/czex/pexboot/internal/pexinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitLauncherWritesShebangAndBootCall(t *testing.T) {
	venvRoot := t.TempDir()
	err := EmitLauncher(venvRoot, LauncherArgs{
		ShebangPython:  "/venv/bin/python",
		VenvBinDir:     "/venv/bin",
		BinPath:        pexinfo.VenvBinPathPrepend,
		StripPexEnv:    true,
		InjectEnv:      map[string]string{"FOO": "bar"},
		InjectArgs:     []string{"-q"},
		EntryPoint:     "cowsay.main",
		HermeticReExec: true,
	})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(venvRoot, "__main__.py"))
	require.NoError(t, err)
	content := string(b)
	assert.Contains(t, content, "#!/venv/bin/python\n")
	assert.Contains(t, content, "boot(")
	assert.Contains(t, content, `"cowsay.main"`)
	assert.Contains(t, content, "True")

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(venvRoot, "pex"))
		require.NoError(t, err)
		assert.Equal(t, "__main__.py", link)
	}
}

func TestEmitReplHelperWritesBanner(t *testing.T) {
	venvRoot := t.TempDir()
	err := EmitReplHelper(venvRoot, "/venv/bin/python", ReplArgs{
		PexVersion:   "1.2.3",
		Requirements: []string{"cowsay==6.0"},
		BinPath:      pexinfo.VenvBinPathFalse,
	})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(venvRoot, "pex-repl"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "start_repl(")
	assert.Contains(t, string(b), "1.2.3")
}

func TestReEmitPexInfoWritesVerbatim(t *testing.T) {
	venvRoot := t.TempDir()
	raw := []byte(`{"pex_hash":"abc"}`)
	require.NoError(t, ReEmitPexInfo(venvRoot, raw))

	b, err := os.ReadFile(filepath.Join(venvRoot, "PEX-INFO"))
	require.NoError(t, err)
	assert.Equal(t, raw, b)
}
