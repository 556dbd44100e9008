// Package pexerr defines the typed error kinds surfaced across pexboot's
// core components. Callers match on Kind rather than formatted strings.
package pexerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by the semantic category in which it occurred.
type Kind int

const (
	// KindInvalidVersion indicates a PEP-440 version string failed to parse.
	KindInvalidVersion Kind = iota
	// KindInvalidOperator indicates an unrecognized specifier operator.
	KindInvalidOperator
	// KindInvalidSpecifierClause indicates a malformed specifier clause.
	KindInvalidSpecifierClause
	// KindInvalidPythonImpl indicates an unrecognized Python implementation tag.
	KindInvalidPythonImpl
	// KindInvalidWheelName indicates a wheel filename could not be parsed.
	KindInvalidWheelName
	// KindPexInfoNotFound indicates the archive has no PEX-INFO entry, that
	// its PEX-INFO manifest is malformed, or that it could not be re-emitted
	// into a venv.
	KindPexInfoNotFound
	// KindInvalidPyvenvCfgFile indicates pyvenv.cfg is missing required keys.
	KindInvalidPyvenvCfgFile
	// KindUnparentedPython indicates an interpreter's home directory could not be derived.
	KindUnparentedPython
	// KindZipOpenError indicates the archive could not be opened as a zip file.
	KindZipOpenError
	// KindZipEntryNotFound indicates a named entry is absent from the archive.
	KindZipEntryNotFound
	// KindZipEntryMetadataError indicates a central-directory entry's metadata is invalid.
	KindZipEntryMetadataError
	// KindZipFileOpenError indicates an entry's compressed stream could not be opened.
	KindZipFileOpenError
	// KindZipFileReadError indicates an entry's compressed stream could not be read.
	KindZipFileReadError
	// KindZipEntryTooLarge indicates an entry exceeds the configured size guard.
	KindZipEntryTooLarge
	// KindInterpreterIdentification indicates the probe subprocess failed.
	KindInterpreterIdentification
	// KindVersionParse indicates the probe emitted a version that failed to parse.
	KindVersionParse
	// KindNoSearchPath indicates no interpreter search path was available.
	KindNoSearchPath
	// KindNonUnique indicates a temporary-directory name collided unexpectedly.
	KindNonUnique
	// KindLockError indicates a cache directory lock could not be acquired,
	// upgraded, downgraded, or released.
	KindLockError
)

var kindNames = map[Kind]string{
	KindInvalidVersion:            "InvalidVersion",
	KindInvalidOperator:           "InvalidOperator",
	KindInvalidSpecifierClause:    "InvalidSpecifierClause",
	KindInvalidPythonImpl:         "InvalidPythonImpl",
	KindInvalidWheelName:          "InvalidWheelName",
	KindPexInfoNotFound:           "PexInfoNotFound",
	KindInvalidPyvenvCfgFile:      "InvalidPyvenvCfgFile",
	KindUnparentedPython:          "UnparentedPythonError",
	KindZipOpenError:              "ZipOpenError",
	KindZipEntryNotFound:          "ZipEntryNotFound",
	KindZipEntryMetadataError:     "ZipEntryMetadataError",
	KindZipFileOpenError:          "ZipFileOpenError",
	KindZipFileReadError:          "ZipFileReadError",
	KindZipEntryTooLarge:          "ZipEntryTooLarge",
	KindInterpreterIdentification: "InterpreterIdentificationError",
	KindVersionParse:              "VersionParseError",
	KindNoSearchPath:              "NoSearchPath",
	KindNonUnique:                 "NonUnique",
	KindLockError:                 "LockError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownError"
}

// Error is pexboot's structured error type. Op names the operation or
// subject (an archive path, interpreter path, wheel filename, cache key)
// so a caller logging the error has something to key on besides the kind.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap constructs an Error wrapping an underlying cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Is reports whether err is a pexerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
