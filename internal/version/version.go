// Package version implements PEP-440 version parsing, canonicalization, and
// comparison: the Version/Specifier component of pexboot's core. Among
// pexboot's packages it imports only internal/pexerr, so it can be
// exercised and reasoned about on its own.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
)

// PreLabel is the canonical spelling of a pre-release segment.
type PreLabel string

const (
	PreAlpha PreLabel = "a"
	PreBeta  PreLabel = "b"
	PreRC    PreLabel = "rc"
)

// PreRelease is the parsed `a|b|rc` segment of a version.
type PreRelease struct {
	Label PreLabel
	Num   int
}

// LocalSegment is one dot-separated component of a local version
// identifier. Numeric segments compare greater than alphabetic ones and
// compare by value; alphabetic segments compare lexicographically.
type LocalSegment struct {
	Numeric bool
	Num     int
	Text    string // lower-cased; only set when !Numeric
}

// Version is a parsed PEP-440 version.
//
// Release holds the dot-separated release segments exactly as given
// (unpadded); comparisons treat missing trailing segments as zero.
type Version struct {
	Raw      string // the original string, used for === comparisons
	Epoch    int
	Release  []uint32
	Wildcard bool // true only for versions parsed by ParseWithWildcard with a trailing ".*"
	Pre      *PreRelease
	Post     *int
	Dev      *int
	Local    []LocalSegment
}

// preStrings lists recognized pre-release spellings, longest-prefix first
// so "alpha" is matched before "a" and so on.
var preStrings = []struct {
	text  string
	canon PreLabel
}{
	{"alpha", PreAlpha},
	{"a", PreAlpha},
	{"beta", PreBeta},
	{"b", PreBeta},
	{"preview", PreRC},
	{"pre", PreRC},
	{"rc", PreRC},
	{"c", PreRC},
}

var postStrings = []string{"post", "rev", "r"}

// Parse parses s as a PEP-440 version. Wildcards ("1.2.*") are rejected;
// use ParseWithWildcard for specifier clauses that permit them.
func Parse(s string) (*Version, error) {
	return parse(s, false)
}

// ParseWithWildcard parses s as a PEP-440 version, permitting (but not
// requiring) a trailing ".*" immediately after the release segments. It is
// only valid to call this for == and != specifier clauses.
func ParseWithWildcard(s string) (*Version, error) {
	return parse(s, true)
}

func parse(s string, allowWildcard bool) (*Version, error) {
	raw := s
	input := strings.TrimSpace(s)
	if input == "" {
		return nil, pexerr.New(pexerr.KindInvalidVersion, raw, "empty version string")
	}

	v := &Version{Raw: raw}

	if len(input) > 0 && (input[0] == 'v' || input[0] == 'V') {
		input = input[1:]
	}

	if bang := strings.IndexByte(input, '!'); bang >= 0 {
		epochStr := input[:bang]
		epoch, err := strconv.ParseUint(epochStr, 10, 16)
		if err != nil {
			return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid epoch", err)
		}
		v.Epoch = int(epoch)
		input = input[bang+1:]
	}

	rest, err := parseRelease(v, input, allowWildcard)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid release segment", err)
	}
	input = rest

	if v.Wildcard {
		if input != "" {
			return nil, pexerr.New(pexerr.KindInvalidVersion, raw, "no components may follow a wildcard release")
		}
		return v, nil
	}

	input, err = parsePre(v, input)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid pre-release", err)
	}
	input, err = parsePost(v, input)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid post-release", err)
	}
	input, err = parseDev(v, input)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid dev-release", err)
	}
	input, err = parseLocal(v, input)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidVersion, raw, "invalid local version", err)
	}

	if input != "" {
		return nil, pexerr.New(pexerr.KindInvalidVersion, raw, fmt.Sprintf("trailing input %q", input))
	}
	return v, nil
}

func parseRelease(v *Version, input string, allowWildcard bool) (string, error) {
	i := 0
	for {
		start := i
		for i < len(input) && isDigit(input[i]) {
			i++
		}
		if i == start {
			return "", fmt.Errorf("expected a digit at %q", input[start:])
		}
		n, err := strconv.ParseUint(input[start:i], 10, 32)
		if err != nil {
			return "", fmt.Errorf("release segment overflow: %q", input[start:i])
		}
		v.Release = append(v.Release, uint32(n))

		if i >= len(input) || input[i] != '.' {
			break
		}
		// A '*' is only recognized as a wildcard immediately after this '.'.
		if allowWildcard && i+1 < len(input) && input[i+1] == '*' {
			v.Wildcard = true
			return input[i+2:], nil
		}
		// A '.' not followed by a digit ends the release: it is left for the
		// pre/post/dev separators ("1.0.post1") or rejected as trailing input.
		if i+1 >= len(input) || !isDigit(input[i+1]) {
			break
		}
		i++ // consume '.'
	}
	return input[i:], nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func hasFoldedPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}

// trimSeparator removes at most one leading '.', '-' or '_'.
func trimSeparator(s string) string {
	if len(s) > 0 {
		switch s[0] {
		case '.', '-', '_':
			return s[1:]
		}
	}
	return s
}

func takeNumber(s string) (int, string) {
	s = trimSeparator(s)
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return 0, s
	}
	n, _ := strconv.Atoi(s[:i])
	return n, s[i:]
}

func parsePre(v *Version, input string) (string, error) {
	if input == "" {
		return input, nil
	}
	trimmed := trimSeparator(input)
	for _, cand := range preStrings {
		if hasFoldedPrefix(trimmed, cand.text) {
			rest := trimmed[len(cand.text):]
			num, rest := takeNumber(rest)
			v.Pre = &PreRelease{Label: cand.canon, Num: num}
			return rest, nil
		}
	}
	return input, nil
}

func parsePost(v *Version, input string) (string, error) {
	if input == "" {
		return input, nil
	}
	dashPrefixed := input[0] == '-'
	trimmed := trimSeparator(input)

	matched := ""
	for _, p := range postStrings {
		if hasFoldedPrefix(trimmed, p) {
			matched = p
			break
		}
	}
	if matched == "" {
		// A bare "-N" (dash followed directly by digits, no keyword) is an
		// implicit post-release, e.g. "1.0-3" == "1.0.post3".
		if dashPrefixed && len(trimmed) > 0 && isDigit(trimmed[0]) {
			num, rest := takeNumber(trimmed)
			v.Post = &num
			return rest, nil
		}
		return input, nil
	}
	rest := trimmed[len(matched):]
	num, rest := takeNumber(rest)
	v.Post = &num
	return rest, nil
}

func parseDev(v *Version, input string) (string, error) {
	if input == "" {
		return input, nil
	}
	trimmed := trimSeparator(input)
	if !hasFoldedPrefix(trimmed, "dev") {
		return input, nil
	}
	rest := trimmed[len("dev"):]
	num, rest := takeNumber(rest)
	v.Dev = &num
	return rest, nil
}

func parseLocal(v *Version, input string) (string, error) {
	if input == "" {
		return input, nil
	}
	if input[0] != '+' {
		return input, fmt.Errorf("unexpected trailing input %q", input)
	}
	body := input[1:]
	if body == "" {
		return input, fmt.Errorf("empty local version identifier")
	}
	// Normalize '-' and '_' separators to '.', matching PEP-503-style
	// normalization applied to local version identifiers.
	body = strings.NewReplacer("-", ".", "_", ".").Replace(body)
	segs := strings.Split(body, ".")
	for _, seg := range segs {
		if seg == "" {
			return input, fmt.Errorf("empty local version segment")
		}
		if isAllDigits(seg) {
			n, err := strconv.Atoi(seg)
			if err != nil {
				return input, fmt.Errorf("invalid numeric local segment %q", seg)
			}
			v.Local = append(v.Local, LocalSegment{Numeric: true, Num: n})
		} else {
			for _, c := range seg {
				if !isAlphanumericRune(c) {
					return input, fmt.Errorf("invalid local version segment %q", seg)
				}
			}
			v.Local = append(v.Local, LocalSegment{Text: strings.ToLower(seg)})
		}
	}
	return "", nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isAlphanumericRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// String renders the canonical form of v.
func (v *Version) String() string {
	var b strings.Builder
	// An explicitly written epoch is kept even when it is 0 ("v0!1.2.3"
	// renders as "0!1.2.3"); an omitted one is not rendered.
	if v.Epoch != 0 || strings.Contains(v.Raw, "!") {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, r := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", r)
	}
	if v.Wildcard {
		b.WriteString(".*")
		return b.String()
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Label, v.Pre.Num)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if len(v.Local) > 0 {
		b.WriteByte('+')
		for i, seg := range v.Local {
			if i > 0 {
				b.WriteByte('.')
			}
			if seg.Numeric {
				fmt.Fprintf(&b, "%d", seg.Num)
			} else {
				b.WriteString(seg.Text)
			}
		}
	}
	return b.String()
}
