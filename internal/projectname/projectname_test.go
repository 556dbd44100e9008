package projectname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"PyYAML":               "pyyaml",
		"twitter.commons.lang": "twitter-commons-lang",
		"foo-_.bar_baz":        "foo-bar-baz",
		"Django":               "django",
		"requests_oauthlib":    "requests-oauthlib",
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "Normalize(%q)", input)
	}
}

func TestParsePreservesRaw(t *testing.T) {
	n := Parse("PyYAML")
	assert.Equal(t, "PyYAML", n.Raw)
	assert.Equal(t, "pyyaml", n.Normalized)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("PyYAML", "pyyaml"))
	assert.True(t, Equal("twitter.commons.lang", "twitter_commons_lang"))
	assert.True(t, Equal("foo-_.bar_baz", "foo.bar.baz"))
	assert.False(t, Equal("foo", "bar"))
}
