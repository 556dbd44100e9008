// Package pexinfo parses the PEX-INFO manifest embedded in every archive.
package pexinfo

import (
	"encoding/json"
	"regexp"

	"github.com/czex/pexboot/internal/pexerr"
)

// VenvBinPath controls whether the venv's bin directory is exposed on PATH.
type VenvBinPath string

const (
	VenvBinPathFalse   VenvBinPath = "false"
	VenvBinPathAppend  VenvBinPath = "append"
	VenvBinPathPrepend VenvBinPath = "prepend"
)

var pexHashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Info is the subset of a PEX-INFO manifest the bootstrap core depends on,
// plus the supplemental pex_root/venv_copies fields. venv_copies is passed
// on to venv creation; pex_root is parsed but nothing reads it.
type Info struct {
	PexHash                string            `json:"pex_hash"`
	Distributions          map[string]string `json:"distributions"`
	Requirements           []string          `json:"requirements"`
	InterpreterConstraints []string          `json:"interpreter_constraints"`
	VenvSystemSitePackages bool              `json:"venv_system_site_packages"`
	VenvHermeticScripts    bool              `json:"venv_hermetic_scripts"`
	VenvBinPath            VenvBinPath       `json:"venv_bin_path"`
	StripPexEnv            bool              `json:"strip_pex_env"`
	InjectEnv              map[string]string `json:"inject_env"`
	InjectArgs             []string          `json:"inject_args"`
	EntryPoint             *string           `json:"entry_point"`
	Script                 *string           `json:"script"`

	// Supplemental fields beyond the core manifest subset pexboot acts on,
	// but present in the source archive format.
	PexRoot    *string `json:"pex_root"`
	VenvCopies bool    `json:"venv_copies"`
}

// Parse decodes a PEX-INFO manifest and validates its pex_hash shape.
func Parse(raw []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, pexerr.Wrap(pexerr.KindPexInfoNotFound, "pexinfo.Parse", "malformed PEX-INFO JSON", err)
	}
	if info.VenvBinPath == "" {
		info.VenvBinPath = VenvBinPathFalse
	}
	if !pexHashPattern.MatchString(info.PexHash) {
		return nil, pexerr.New(pexerr.KindPexInfoNotFound, "pexinfo.Parse", "pex_hash is not a 40-hex-char SHA-1")
	}
	switch info.VenvBinPath {
	case VenvBinPathFalse, VenvBinPathAppend, VenvBinPathPrepend:
	default:
		return nil, pexerr.New(pexerr.KindPexInfoNotFound, "pexinfo.Parse", "venv_bin_path must be false, append, or prepend")
	}
	return &info, nil
}

// HasDistributions reports whether the manifest names any wheels to install.
func (i *Info) HasDistributions() bool {
	return len(i.Distributions) > 0
}
