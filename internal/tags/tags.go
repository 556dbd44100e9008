// Package tags implements PEP-425 compatibility tag parsing and wheel
// filename parsing, plus ranking of wheels against an interpreter's ordered
// tag list.
package tags

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/projectname"
)

// Tag is a PEP-425 compatibility tag triple.
type Tag struct {
	Python   string
	ABI      string
	Platform string
}

func (t Tag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// BuildTag holds the parsed components of a wheel's optional build tag.
type BuildTag struct {
	Present bool
	Num     int
	Suffix  string
}

// WheelInfo holds the information encoded in a wheel filename.
type WheelInfo struct {
	Filename string
	// Project is the raw project segment as it appears in the filename.
	Project string
	// NormalizedProject is Project's PEP-503 normalized form, used when
	// matching a wheel against a requirement string rather than another
	// filename.
	NormalizedProject string
	Version           string
	Build             BuildTag
	Tags              []Tag
}

// ParseWheelName parses a wheel filename per
// <project>-<version>[-<build>]-<python>-<abi>-<platform>.whl, expanding the
// '.'-separated cross product of compressed python/abi/platform tag sets.
func ParseWheelName(name string) (*WheelInfo, error) {
	if !strings.HasSuffix(name, ".whl") {
		return nil, pexerr.New(pexerr.KindInvalidWheelName, name, "missing .whl suffix")
	}
	trimmed := name[:len(name)-len(".whl")]
	parts := strings.Split(trimmed, "-")
	if len(parts) != 5 && len(parts) != 6 {
		return nil, pexerr.New(pexerr.KindInvalidWheelName, name, "expected 5 or 6 dash-separated components")
	}

	info := &WheelInfo{
		Filename:          name,
		Project:           parts[0],
		NormalizedProject: projectname.Normalize(parts[0]),
		Version:           parts[1],
	}

	if len(parts) == 6 {
		build, err := parseBuildTag(parts[2])
		if err != nil {
			return nil, pexerr.Wrap(pexerr.KindInvalidWheelName, name, "invalid build tag", err)
		}
		info.Build = build
	}

	raw := Tag{
		Python:   parts[len(parts)-3],
		ABI:      parts[len(parts)-2],
		Platform: parts[len(parts)-1],
	}
	info.Tags = expandTag(raw)
	if len(info.Tags) == 0 {
		return nil, pexerr.New(pexerr.KindInvalidWheelName, name, "tag expansion produced no tags")
	}
	return info, nil
}

func parseBuildTag(s string) (BuildTag, error) {
	lastNonDigit := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	digitsStart := lastNonDigit + 1
	if digitsStart == len(s) {
		return BuildTag{}, pexerr.New(pexerr.KindInvalidWheelName, s, "build tag must end with a digit")
	}
	num, err := strconv.Atoi(s[digitsStart:])
	if err != nil {
		return BuildTag{}, pexerr.Wrap(pexerr.KindInvalidWheelName, s, "invalid build tag number", err)
	}
	return BuildTag{Present: true, Num: num, Suffix: s[:digitsStart]}, nil
}

// expandTag expands the compressed tag sets in raw into the full cross
// product of individual (python, abi, platform) tags, per
// https://peps.python.org/pep-0425/#compressed-tag-sets.
func expandTag(raw Tag) []Tag {
	pythons := strings.Split(raw.Python, ".")
	abis := strings.Split(raw.ABI, ".")
	platforms := strings.Split(raw.Platform, ".")

	tags := make([]Tag, 0, len(pythons)*len(abis)*len(platforms))
	for _, py := range pythons {
		for _, abi := range abis {
			for _, plat := range platforms {
				tags = append(tags, Tag{Python: py, ABI: abi, Platform: plat})
			}
		}
	}
	return tags
}

// RankedTags maps an interpreter's ordered, most-preferred-first tag list to
// a rank index, so lower ranks mean "more preferred."
type RankedTags struct {
	rank map[Tag]int
}

// NewRankedTags builds a RankedTags from an interpreter's ordered tag list.
// If a tag occurs more than once, only its first (best) occurrence counts.
func NewRankedTags(ordered []Tag) *RankedTags {
	rank := make(map[Tag]int, len(ordered))
	for i, t := range ordered {
		if _, exists := rank[t]; !exists {
			rank[t] = i
		}
	}
	return &RankedTags{rank: rank}
}

// Rank returns the tag's rank and true if the interpreter supports it, or
// (0, false) if it does not.
func (r *RankedTags) Rank(t Tag) (int, bool) {
	rank, ok := r.rank[t]
	return rank, ok
}

// WheelRank returns the minimum rank across all of a wheel's expanded tags,
// and true if at least one tag is supported (the wheel is "eligible").
func (r *RankedTags) WheelRank(info *WheelInfo) (int, bool) {
	best := -1
	found := false
	for _, t := range info.Tags {
		if rank, ok := r.Rank(t); ok {
			if !found || rank < best {
				best = rank
				found = true
			}
		}
	}
	return best, found
}
