package version

import (
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
)

// Operator is a PEP-440 specifier comparison operator.
type Operator string

const (
	OpArbitrary  Operator = "==="
	OpEqual      Operator = "=="
	OpNotEqual   Operator = "!="
	OpGreaterEq  Operator = ">="
	OpLessEq     Operator = "<="
	OpGreater    Operator = ">"
	OpLess       Operator = "<"
	OpCompatible Operator = "~="
)

// operatorsByLength lists recognized operators longest-first so that, e.g.,
// ">=" is matched before ">".
var operatorsByLength = []Operator{OpArbitrary, OpEqual, OpNotEqual, OpGreaterEq, OpLessEq, OpCompatible, OpGreater, OpLess}

// Clause is a single comparison within a Specifier.
type Clause struct {
	Op      Operator
	Version *Version // nil only for OpArbitrary, where Raw is compared instead
	Raw     string   // the exact text after the operator, used by ===
}

// Specifier is the AND of zero or more Clauses.
type Specifier struct {
	Clauses []Clause
}

// ParseSpecifier parses a comma-separated specifier set such as
// ">=3.9,!=3.9.1".
func ParseSpecifier(s string) (*Specifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Specifier{}, nil
	}
	parts := strings.Split(s, ",")
	spec := &Specifier{Clauses: make([]Clause, 0, len(parts))}
	for _, part := range parts {
		clause, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		spec.Clauses = append(spec.Clauses, clause)
	}
	return spec, nil
}

func parseClause(s string) (Clause, error) {
	if s == "" {
		return Clause{}, pexerr.New(pexerr.KindInvalidSpecifierClause, s, "empty clause")
	}
	var op Operator
	for _, candidate := range operatorsByLength {
		if strings.HasPrefix(s, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Clause{}, pexerr.New(pexerr.KindInvalidOperator, s, "unrecognized operator")
	}
	rest := strings.TrimSpace(s[len(op):])
	if rest == "" {
		return Clause{}, pexerr.New(pexerr.KindInvalidSpecifierClause, s, "missing version after operator")
	}

	if op == OpArbitrary {
		return Clause{Op: op, Raw: rest}, nil
	}

	allowsWildcard := op == OpEqual || op == OpNotEqual
	var v *Version
	var err error
	if allowsWildcard {
		v, err = ParseWithWildcard(rest)
	} else {
		v, err = Parse(rest)
		if err == nil && strings.Contains(rest, "*") {
			err = pexerr.New(pexerr.KindInvalidSpecifierClause, s, "wildcard not permitted for this operator")
		}
	}
	if err != nil {
		return Clause{}, pexerr.Wrap(pexerr.KindInvalidSpecifierClause, s, "invalid version operand", err)
	}

	if op == OpCompatible && len(v.Release) < 2 {
		return Clause{}, pexerr.New(pexerr.KindInvalidSpecifierClause, s, "~= requires at least two release segments")
	}

	return Clause{Op: op, Version: v, Raw: rest}, nil
}

// Matches reports whether candidate satisfies every clause in spec.
func (s *Specifier) Matches(candidate *Version) bool {
	for _, c := range s.Clauses {
		if !c.Matches(candidate) {
			return false
		}
	}
	return true
}

// Matches reports whether candidate satisfies this single clause.
func (c *Clause) Matches(candidate *Version) bool {
	switch c.Op {
	case OpArbitrary:
		return candidate.Raw == c.Raw
	case OpEqual:
		return equalWithWildcard(candidate, c.Version)
	case OpNotEqual:
		return !equalWithWildcard(candidate, c.Version)
	case OpGreaterEq:
		return Compare(candidate, c.Version) >= 0
	case OpLessEq:
		return Compare(candidate, c.Version) <= 0
	case OpGreater:
		return Compare(candidate, c.Version) > 0
	case OpLess:
		return Compare(candidate, c.Version) < 0
	case OpCompatible:
		return compatibleMatches(candidate, c.Version)
	default:
		return false
	}
}

func equalWithWildcard(candidate, spec *Version) bool {
	if !spec.Wildcard {
		return Equal(candidate, spec)
	}
	if candidate.Epoch != spec.Epoch {
		return false
	}
	for i, seg := range spec.Release {
		var c uint32
		if i < len(candidate.Release) {
			c = candidate.Release[i]
		}
		if c != seg {
			return false
		}
	}
	return true
}

func compatibleMatches(candidate, spec *Version) bool {
	prefixLen := len(spec.Release) - 1
	for i := 0; i < prefixLen; i++ {
		var c uint32
		if i < len(candidate.Release) {
			c = candidate.Release[i]
		}
		if c != spec.Release[i] {
			return false
		}
	}
	return Compare(candidate, spec) >= 0
}
