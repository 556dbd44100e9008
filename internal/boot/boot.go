// Package boot ties every core component together: resolve the candidate
// interpreter, identify it, read PEX-INFO, compute the venv cache key,
// atomically create (or reuse) the venv, and exec-replace the process.
package boot

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/czex/pexboot/internal/cachedir"
	"github.com/czex/pexboot/internal/interpreter"
	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/markers"
	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/pexinfo"
	"github.com/czex/pexboot/internal/pexzip"
	"github.com/czex/pexboot/internal/resources"
	"github.com/czex/pexboot/internal/tags"
	"github.com/czex/pexboot/internal/venv"
	"github.com/czex/pexboot/internal/venvpex"
	"github.com/czex/pexboot/internal/version"
)

// Config configures a single boot invocation.
type Config struct {
	PythonPath  string
	ArchivePath string
	Args        []string // original argv[1:] to pass through
	CacheRoot   string
	PexVersion  string
	Logger      log.Logger
}

// Run executes the full boot pipeline. On POSIX it never returns on
// success (the process image is replaced); on Windows it returns the
// child's translated exit code.
func Run(cfg Config) (int, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	absPython, err := filepath.Abs(cfg.PythonPath)
	if err != nil {
		return 0, pexerr.Wrap(pexerr.KindInterpreterIdentification, cfg.PythonPath, "failed to resolve python path", err)
	}

	prober := &interpreter.Prober{ProbeScript: resources.InterpreterProbe, CacheRoot: cfg.CacheRoot, Logger: logger}
	descriptor, err := prober.Identify(absPython)
	if err != nil {
		return 0, err
	}

	archive, err := pexzip.Open(cfg.ArchivePath)
	if err != nil {
		return 0, err
	}
	defer archive.Close()

	raw, found, err := archive.ExtractToSlice("PEX-INFO")
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, pexerr.New(pexerr.KindPexInfoNotFound, cfg.ArchivePath, "archive has no PEX-INFO entry")
	}

	info, err := pexinfo.Parse(raw)
	if err != nil {
		return 0, err
	}

	constraints, err := markers.Parse(info.InterpreterConstraints)
	if err != nil {
		return 0, err
	}
	candidateVersion, err := descriptorVersion(descriptor)
	if err != nil {
		return 0, err
	}
	if !constraints.Matches(markers.Env{Implementation: descriptor.Platform.Implementation, Version: candidateVersion}) {
		return 0, pexerr.New(pexerr.KindInvalidPythonImpl, absPython, "interpreter does not satisfy interpreter_constraints")
	}

	fingerprint := interpreterFingerprint(descriptor.CanonicalPath)
	venvKey := venvCacheKey(info.PexHash, fingerprint)
	venvRoot := filepath.Join(cfg.CacheRoot, "venvs", "0", venvKey)

	ranked := rankedTagsFrom(descriptor)

	c, err := cachedir.CreateAtomic(venvRoot, func(scratch string) error {
		baseInterp := venv.BaseInterpreter{
			CanonicalPath:  descriptor.CanonicalPath,
			Major:          descriptor.Major,
			Minor:          descriptor.Minor,
			Implementation: descriptor.Platform.Implementation,
		}
		return venvpex.Install(scratch, venvpex.Params{
			Archive:      archive,
			Info:         info,
			RawPexInfo:   raw,
			Ranked:       ranked,
			BaseInterp:   baseInterp,
			DestPath:     venvRoot,
			PexVersion:   cfg.PexVersion,
			LegacyVenvPy: resources.LegacyVirtualenv,
			Logger:       logger,
		})
	}, logger)
	if err != nil {
		return 0, err
	}
	defer c.Unlock()

	venvPython := filepath.Join(venvRoot, interpreterRelpathFor(descriptor))
	mainPy := filepath.Join(venvRoot, "__main__.py")

	argv := append([]string{venvPython, mainPy}, cfg.Args...)
	return exec(venvPython, argv, os.Environ())
}

func descriptorVersion(d *interpreter.Descriptor) (*version.Version, error) {
	return version.Parse(fmt.Sprintf("%d.%d.%d", d.Major, d.Minor, d.Micro))
}

func interpreterFingerprint(canonicalPath string) string {
	sum := sha256.Sum256([]byte(canonicalPath))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// venvCacheKey implements the §9 resolution: the venv directory name is
// <b64(pex_hash)>-<first 12 chars of b64(sha256(canonical_path))>. pex_hash
// is already the PEX-INFO hex-encoded digest; it is decoded and
// re-encoded as base64 rather than hashed a second time, so the same
// archive always maps to the same prefix regardless of which interpreter
// built its venv.
func venvCacheKey(pexHash, fingerprint string) string {
	pexHashB64 := pexHash
	if raw, err := hex.DecodeString(pexHash); err == nil {
		pexHashB64 = base64.RawURLEncoding.EncodeToString(raw)
	}
	short := fingerprint
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("%s-%s", pexHashB64, short)
}

func rankedTagsFrom(d *interpreter.Descriptor) *tags.RankedTags {
	ordered := make([]tags.Tag, len(d.Tags))
	for i, t := range d.Tags {
		ordered[i] = tags.Tag{Python: t.Python, ABI: t.ABI, Platform: t.Platform}
	}
	return tags.NewRankedTags(ordered)
}

func interpreterRelpathFor(d *interpreter.Descriptor) string {
	if d.Platform.OS == "windows" {
		return filepath.Join("Scripts", "python.exe")
	}
	return filepath.Join("bin", "python")
}
