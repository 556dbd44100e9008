// Package markers evaluates interpreter_constraints — PEP-440 specifier
// clauses recorded in a PEX-INFO manifest that restrict which interpreters
// may install a given archive.
package markers

import (
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/version"
)

// InterpreterConstraints is the parsed form of a PEX-INFO
// "interpreter_constraints" list: each entry is an independent specifier,
// and the constraint set as a whole is satisfied if ANY entry matches (the
// entries are alternatives, e.g. "CPython>=3.8" OR "PyPy>=3.9").
type InterpreterConstraints struct {
	Raw        []string
	Specifiers []*version.Specifier
	Implements []string // parallel to Specifiers; "" means "any implementation"
}

// Parse parses a PEX-INFO interpreter_constraints list. Each entry may be
// optionally prefixed by an implementation name (e.g. "CPython", "PyPy")
// immediately followed by the specifier clauses, matching the convention
// used by packaging's Requirement python_requires strings.
func Parse(constraints []string) (*InterpreterConstraints, error) {
	ic := &InterpreterConstraints{Raw: constraints}
	for _, c := range constraints {
		impl, specStr := splitImplementation(c)
		spec, err := version.ParseSpecifier(specStr)
		if err != nil {
			return nil, pexerr.Wrap(pexerr.KindInvalidSpecifierClause, c, "invalid interpreter constraint", err)
		}
		ic.Specifiers = append(ic.Specifiers, spec)
		ic.Implements = append(ic.Implements, impl)
	}
	return ic, nil
}

// splitImplementation separates a leading alphabetic implementation name
// (CPython, PyPy, Jython, IronPython) from the specifier clauses that
// follow it. A constraint with no recognizable leading name applies to any
// implementation.
func splitImplementation(c string) (impl, rest string) {
	i := 0
	for i < len(c) && isAlpha(c[i]) {
		i++
	}
	if i == 0 {
		return "", c
	}
	return c[:i], c[i:]
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Env describes the subset of a candidate interpreter relevant to
// constraint matching.
type Env struct {
	Implementation string // e.g. "CPython", "PyPy"
	Version        *version.Version
}

// Matches reports whether env satisfies at least one of the constraint
// alternatives. An empty constraint set matches everything.
func (ic *InterpreterConstraints) Matches(env Env) bool {
	if len(ic.Specifiers) == 0 {
		return true
	}
	for i, spec := range ic.Specifiers {
		impl := ic.Implements[i]
		if impl != "" && !strings.EqualFold(impl, env.Implementation) {
			continue
		}
		if spec.Matches(env.Version) {
			return true
		}
	}
	return false
}
