package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Version {
	t.Helper()
	v, err := Parse(s)
	require.NoError(t, err, s)
	return v
}

func TestSpecifierGreaterEqual(t *testing.T) {
	spec, err := ParseSpecifier(">=3.9")
	require.NoError(t, err)

	accept := []string{"3.9", "3.9.0", "3.9.23", "3.13", "3.13.5", "0!3.9", "1!3.9"}
	reject := []string{"3", "3.8", "3.8.20"}

	for _, s := range accept {
		assert.True(t, spec.Matches(mustParse(t, s)), ">=3.9 should accept %s", s)
	}
	for _, s := range reject {
		assert.False(t, spec.Matches(mustParse(t, s)), ">=3.9 should reject %s", s)
	}
}

func TestSpecifierCompatible(t *testing.T) {
	spec, err := ParseSpecifier("~=3.9")
	require.NoError(t, err)

	accept := []string{"3.9", "3.9.0", "3.10", "3.13"}
	reject := []string{"2.7", "3", "4"}

	for _, s := range accept {
		assert.True(t, spec.Matches(mustParse(t, s)), "~=3.9 should accept %s", s)
	}
	for _, s := range reject {
		assert.False(t, spec.Matches(mustParse(t, s)), "~=3.9 should reject %s", s)
	}
}

func TestSpecifierCompatibleRequiresTwoSegments(t *testing.T) {
	_, err := ParseSpecifier("~=3")
	assert.Error(t, err)
}

func TestSpecifierWildcardEqual(t *testing.T) {
	spec, err := ParseSpecifier("==3.9.*")
	require.NoError(t, err)

	accept := []string{"3.9", "3.9.0", "3.9.23"}
	reject := []string{"3.8", "3.10"}

	for _, s := range accept {
		assert.True(t, spec.Matches(mustParse(t, s)), "==3.9.* should accept %s", s)
	}
	for _, s := range reject {
		assert.False(t, spec.Matches(mustParse(t, s)), "==3.9.* should reject %s", s)
	}
}

func TestSpecifierWildcardForbiddenForOrdering(t *testing.T) {
	_, err := ParseSpecifier(">=3.9.*")
	assert.Error(t, err)
}

func TestSpecifierArbitraryEquality(t *testing.T) {
	spec, err := ParseSpecifier("===3.9.1+local")
	require.NoError(t, err)

	v, err := Parse("3.9.1+local")
	require.NoError(t, err)
	assert.True(t, spec.Matches(v))

	v2, err := Parse("3.9.1")
	require.NoError(t, err)
	assert.False(t, spec.Matches(v2), "=== requires byte-for-byte raw equality")
}

func TestSpecifierConjunction(t *testing.T) {
	spec, err := ParseSpecifier(">=3.9,!=3.9.1")
	require.NoError(t, err)

	assert.True(t, spec.Matches(mustParse(t, "3.9")))
	assert.True(t, spec.Matches(mustParse(t, "3.9.2")))
	assert.False(t, spec.Matches(mustParse(t, "3.9.1")))
	assert.False(t, spec.Matches(mustParse(t, "3.8")))
}
