package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWheelNameNoBuildMultiTag(t *testing.T) {
	info, err := ParseWheelName("cowsay-6.0-py2.py3-none-any.whl")
	require.NoError(t, err)
	assert.Equal(t, "cowsay", info.Project)
	assert.Equal(t, "cowsay", info.NormalizedProject)
	assert.Equal(t, "6.0", info.Version)
	assert.False(t, info.Build.Present)
	assert.Equal(t, []Tag{
		{Python: "py2", ABI: "none", Platform: "any"},
		{Python: "py3", ABI: "none", Platform: "any"},
	}, info.Tags)
}

func TestParseWheelNameWithBuildTag(t *testing.T) {
	info, err := ParseWheelName("cowsay-6.0-abcd1234-py3-none-any.whl")
	require.NoError(t, err)
	assert.True(t, info.Build.Present)
	assert.Equal(t, 1234, info.Build.Num)
	assert.Equal(t, "abcd", info.Build.Suffix)
	assert.Equal(t, []Tag{{Python: "py3", ABI: "none", Platform: "any"}}, info.Tags)
}

func TestParseWheelNameNormalizesProjectPerPEP503(t *testing.T) {
	info, err := ParseWheelName("twitter.commons.lang-1.0-py3-none-any.whl")
	require.NoError(t, err)
	assert.Equal(t, "twitter.commons.lang", info.Project)
	assert.Equal(t, "twitter-commons-lang", info.NormalizedProject)
}

func TestParseWheelNameInvalid(t *testing.T) {
	cases := []string{
		"cowsay-py2.py3-none-any.whl",
		"cowsay-6.0-abcd-extra-py3-none-any.whl",
		"not-a-wheel.txt",
	}
	for _, name := range cases {
		_, err := ParseWheelName(name)
		assert.Error(t, err, name)
	}
}

func TestExpandTagCrossProduct(t *testing.T) {
	info, err := ParseWheelName("foo-1.0-py2.py3-abi3.none-any.whl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Tag{
		{Python: "py2", ABI: "abi3", Platform: "any"},
		{Python: "py2", ABI: "none", Platform: "any"},
		{Python: "py3", ABI: "abi3", Platform: "any"},
		{Python: "py3", ABI: "none", Platform: "any"},
	}, info.Tags)
}

func TestRankedTagsWheelRank(t *testing.T) {
	ranked := NewRankedTags([]Tag{
		{Python: "cp311", ABI: "cp311", Platform: "manylinux_2_17_x86_64"},
		{Python: "cp311", ABI: "abi3", Platform: "manylinux_2_17_x86_64"},
		{Python: "py3", ABI: "none", Platform: "any"},
	})

	exact, err := ParseWheelName("foo-1.0-cp311-cp311-manylinux_2_17_x86_64.whl")
	require.NoError(t, err)
	rank, ok := ranked.WheelRank(exact)
	require.True(t, ok)
	assert.Equal(t, 0, rank)

	universal, err := ParseWheelName("foo-1.0-py2.py3-none-any.whl")
	require.NoError(t, err)
	rank, ok = ranked.WheelRank(universal)
	require.True(t, ok)
	assert.Equal(t, 2, rank)

	unsupported, err := ParseWheelName("foo-1.0-cp27-cp27m-win32.whl")
	require.NoError(t, err)
	_, ok = ranked.WheelRank(unsupported)
	assert.False(t, ok)
}
