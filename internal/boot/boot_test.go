package boot

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/czex/pexboot/internal/interpreter"
	"github.com/czex/pexboot/internal/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenvCacheKeyDecodesPexHashRatherThanRehashing(t *testing.T) {
	pexHash := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	fingerprint := interpreterFingerprint("/usr/bin/python3")

	key := venvCacheKey(pexHash, fingerprint)

	rawHash, err := hex.DecodeString(pexHash)
	require.NoError(t, err)
	wantPrefix := base64.RawURLEncoding.EncodeToString(rawHash)
	assert.True(t, strings.HasPrefix(key, wantPrefix+"-"))
	assert.Equal(t, wantPrefix+"-"+fingerprint[:12], key)
}

func TestVenvCacheKeySameInputsAreStable(t *testing.T) {
	a := venvCacheKey("da39a3ee5e6b4b0d3255bfef95601890afd80709", "abcdefghijklmnop")
	b := venvCacheKey("da39a3ee5e6b4b0d3255bfef95601890afd80709", "abcdefghijklmnop")
	assert.Equal(t, a, b)
}

func TestVenvCacheKeyDiffersByFingerprint(t *testing.T) {
	a := venvCacheKey("da39a3ee5e6b4b0d3255bfef95601890afd80709", "aaaaaaaaaaaaaaaa")
	b := venvCacheKey("da39a3ee5e6b4b0d3255bfef95601890afd80709", "bbbbbbbbbbbbbbbb")
	assert.NotEqual(t, a, b)
}

func TestInterpreterFingerprintMatchesSha256Base64(t *testing.T) {
	sum := sha256.Sum256([]byte("/usr/bin/python3"))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	assert.Equal(t, want, interpreterFingerprint("/usr/bin/python3"))
}

func TestDescriptorVersionBuildsFromMajorMinorMicro(t *testing.T) {
	d := &interpreter.Descriptor{Major: 3, Minor: 11, Micro: 4}
	v, err := descriptorVersion(d)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 11, 4}, v.Release)
}

func TestRankedTagsFromPreservesOrder(t *testing.T) {
	d := &interpreter.Descriptor{
		Tags: []interpreter.TagJSON{
			{Python: "cp311", ABI: "cp311", Platform: "manylinux_2_28_x86_64"},
			{Python: "py3", ABI: "none", Platform: "any"},
		},
	}
	ranked := rankedTagsFrom(d)

	best, ok := ranked.Rank(tags.Tag{Python: "cp311", ABI: "cp311", Platform: "manylinux_2_28_x86_64"})
	require.True(t, ok)
	fallback, ok := ranked.Rank(tags.Tag{Python: "py3", ABI: "none", Platform: "any"})
	require.True(t, ok)
	assert.Less(t, best, fallback)
}

func TestInterpreterRelpathForWindowsVsPosix(t *testing.T) {
	posix := &interpreter.Descriptor{Platform: interpreter.PlatformEnv{OS: "linux"}}
	windows := &interpreter.Descriptor{Platform: interpreter.PlatformEnv{OS: "windows"}}

	assert.Equal(t, "bin/python", filepath.ToSlash(interpreterRelpathFor(posix)))
	assert.Contains(t, interpreterRelpathFor(windows), "python.exe")
}
