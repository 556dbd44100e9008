// Package projectname normalizes Python distribution names per PEP-503.
package projectname

import "regexp"

var runOfSeparators = regexp.MustCompile(`[-_.]+`)

// Name holds both the normalized and raw forms of a distribution name.
type Name struct {
	Raw        string
	Normalized string
}

// Normalize lowercases name and collapses any run of '-', '_', '.' into a
// single '-', per https://peps.python.org/pep-0503/#normalized-names.
func Normalize(name string) string {
	lower := toLower(name)
	return runOfSeparators.ReplaceAllString(lower, "-")
}

// Parse returns a Name retaining both the raw input and its normalized form.
func Parse(raw string) Name {
	return Name{Raw: raw, Normalized: Normalize(raw)}
}

// Equal reports whether two raw names refer to the same distribution once
// normalized.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
