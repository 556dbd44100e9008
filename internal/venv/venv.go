// Package venv builds and loads Python virtual environments: the
// pyvenv.cfg file, the bin/python interpreter link, and ensurepip/
// virtualenv.py bootstrapping.
package venv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/pexerr"
)

// BaseInterpreter is the subset of an identified interpreter a venv build
// needs: its canonical (symlink-resolved) path and version/implementation
// fields used to compute the site-packages relative path.
type BaseInterpreter struct {
	CanonicalPath  string
	Major, Minor   int
	Implementation string // "CPython", "PyPy", ...
}

// Config controls how a venv is created.
type Config struct {
	SystemSitePackages bool
	WithPip            bool
	// VenvCopies forces a copy of the interpreter even on POSIX, where a
	// symlink is the default.
	VenvCopies bool
	// LegacyVirtualenvPy is the embedded virtualenv.py body used to
	// bootstrap a bare venv for Python 2 interpreters, which have no
	// built-in venv module.
	LegacyVirtualenvPy []byte
}

// Venv describes a created or loaded virtual environment directory.
type Venv struct {
	Root                string
	Home                string
	IncludeSystemSite   bool
	InterpreterRelpath  string
	SitePackagesRelpath string
}

// InterpreterPath returns the absolute path to the venv's own interpreter.
func (v *Venv) InterpreterPath() string {
	return filepath.Join(v.Root, filepath.FromSlash(v.InterpreterRelpath))
}

// SitePackagesPath returns the absolute path to the venv's site-packages
// directory.
func (v *Venv) SitePackagesPath() string {
	return filepath.Join(v.Root, filepath.FromSlash(v.SitePackagesRelpath))
}

func interpreterRelpath() string {
	if runtime.GOOS == "windows" {
		return "Scripts/python.exe"
	}
	return "bin/python"
}

// sitePackagesRelpath computes lib/pythonX.Y/site-packages (Lib/site-packages
// on Windows), with the "pypy" prefix substituted for PyPy >= 2.8. The
// implementation name is matched case-insensitively, since the probe
// reports sys.implementation.name ("pypy").
func sitePackagesRelpath(base BaseInterpreter) string {
	if runtime.GOOS == "windows" {
		return "Lib/site-packages"
	}
	dirName := "python"
	if strings.EqualFold(base.Implementation, "PyPy") && !(base.Major == 2 && base.Minor < 8) {
		dirName = "pypy"
	}
	return fmt.Sprintf("lib/%s%d.%d/site-packages", dirName, base.Major, base.Minor)
}

// Create builds a new venv rooted at dir around base, writing pyvenv.cfg,
// linking (or copying) the interpreter, and optionally bootstrapping pip.
func Create(dir string, base BaseInterpreter, cfg Config, logger log.Logger) (*Venv, error) {
	if logger == nil {
		logger = log.NewNoop()
	}
	home := filepath.Dir(base.CanonicalPath)
	if home == "." || home == string(filepath.Separator) {
		return nil, pexerr.New(pexerr.KindUnparentedPython, base.CanonicalPath, "interpreter has no parent directory")
	}

	v := &Venv{
		Root:                dir,
		Home:                home,
		IncludeSystemSite:   cfg.SystemSitePackages,
		InterpreterRelpath:  interpreterRelpath(),
		SitePackagesRelpath: sitePackagesRelpath(base),
	}

	if err := os.MkdirAll(filepath.Join(dir, filepath.Dir(filepath.FromSlash(v.InterpreterRelpath))), 0o755); err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, dir, "failed to create bin directory", err)
	}
	if err := os.MkdirAll(v.SitePackagesPath(), 0o755); err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, dir, "failed to create site-packages directory", err)
	}

	if err := linkOrCopyInterpreter(base.CanonicalPath, v.InterpreterPath(), cfg.VenvCopies); err != nil {
		return nil, err
	}

	if err := writePyvenvCfg(v); err != nil {
		return nil, err
	}

	if cfg.WithPip {
		if err := bootstrapPip(v, base, cfg, logger); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func linkOrCopyInterpreter(canonicalPath, dest string, forceCopy bool) error {
	if runtime.GOOS != "windows" && !forceCopy {
		if err := os.Symlink(canonicalPath, dest); err != nil {
			return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, dest, "failed to symlink interpreter", err)
		}
		return nil
	}
	return copyFile(canonicalPath, dest, 0o755)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, src, "failed to open interpreter for copy", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, dst, "failed to create interpreter copy", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, dst, "failed to copy interpreter", err)
	}
	return nil
}

func writePyvenvCfg(v *Venv) error {
	var b strings.Builder
	fmt.Fprintf(&b, "home = %s\n", v.Home)
	fmt.Fprintf(&b, "include-system-site-packages = %s\n", boolString(v.IncludeSystemSite))
	fmt.Fprintf(&b, "interpreter-relpath = %s\n", v.InterpreterRelpath)
	fmt.Fprintf(&b, "site-packages-relpath = %s\n", v.SitePackagesRelpath)
	path := filepath.Join(v.Root, "pyvenv.cfg")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to write pyvenv.cfg", err)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func bootstrapPip(v *Venv, base BaseInterpreter, cfg Config, logger log.Logger) error {
	if base.Major >= 3 {
		cmd := exec.Command(v.InterpreterPath(), "-m", "ensurepip", "--default-pip")
		out, err := cmd.CombinedOutput()
		if err != nil {
			logger.Warn("ensurepip failed", "venv", v.Root, "output", string(out), "err", err)
			return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, v.Root, "ensurepip failed", err)
		}
		return nil
	}

	if len(cfg.LegacyVirtualenvPy) == 0 {
		return pexerr.New(pexerr.KindInvalidPyvenvCfgFile, v.Root, "python 2 venv requested but no virtualenv.py embedded")
	}
	scriptPath := filepath.Join(os.TempDir(), "pexboot-virtualenv.py")
	if err := os.WriteFile(scriptPath, cfg.LegacyVirtualenvPy, 0o644); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, v.Root, "failed to stage virtualenv.py", err)
	}
	defer os.Remove(scriptPath)

	cmd := exec.Command(base.CanonicalPath, scriptPath, "--no-download", "--no-pip", "--no-setuptools", "--no-wheel", v.Root)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Warn("virtualenv.py bootstrap failed", "venv", v.Root, "output", string(out), "err", err)
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, v.Root, "virtualenv.py bootstrap failed", err)
	}
	return nil
}

// Load reads an existing venv's pyvenv.cfg, validating "home" and
// synthesizing any missing interpreter-relpath/site-packages-relpath from
// the resolved base interpreter.
func Load(dir string, base BaseInterpreter) (*Venv, error) {
	path := filepath.Join(dir, "pyvenv.cfg")
	f, err := os.Open(path)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to open pyvenv.cfg", err)
	}
	defer f.Close()

	kv := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		kv[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to read pyvenv.cfg", err)
	}

	home, ok := kv["home"]
	if !ok || home == "" {
		return nil, pexerr.New(pexerr.KindInvalidPyvenvCfgFile, path, "missing required key: home")
	}

	v := &Venv{
		Root:                dir,
		Home:                home,
		IncludeSystemSite:   kv["include-system-site-packages"] == "true",
		InterpreterRelpath:  kv["interpreter-relpath"],
		SitePackagesRelpath: kv["site-packages-relpath"],
	}
	if v.InterpreterRelpath == "" {
		v.InterpreterRelpath = interpreterRelpath()
	}
	if v.SitePackagesRelpath == "" {
		v.SitePackagesRelpath = sitePackagesRelpath(base)
	}
	return v, nil
}

