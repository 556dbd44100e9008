//go:build linux

package interpreter

import (
	"bufio"
	"bytes"
	"debug/elf"
	"fmt"
	"os/exec"
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
)

// LinuxInfo is the extra context the probe script needs on Linux: the
// dynamic loader's reported version string, keyed by whether it is musl.
type LinuxInfo struct {
	IsMusl  bool   `json:"is_musl"`
	Version string `json:"version"`
}

// probeLinuxInfo reads path's ELF PT_INTERP entry and extracts the dynamic
// loader's version, distinguishing musl from glibc by the loader path
// containing "musl". Returns nil (not an error) if path is not an ELF
// binary, since this step is best-effort on non-Linux-native interpreters.
func probeLinuxInfo(path string) (*LinuxInfo, error) {
	interp, err := readPTInterp(path)
	if err != nil || interp == "" {
		return nil, nil
	}

	if strings.Contains(interp, "musl") {
		version, err := muslVersion(interp)
		if err != nil {
			return nil, err
		}
		return &LinuxInfo{IsMusl: true, Version: version}, nil
	}

	version, err := glibcLoaderVersion(interp)
	if err != nil {
		return nil, err
	}
	return &LinuxInfo{IsMusl: false, Version: version}, nil
}

func readPTInterp(path string) (string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return "", nil // not an ELF file; not fatal
	}
	defer f.Close()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return "", pexerr.Wrap(pexerr.KindInterpreterIdentification, path, "failed to read PT_INTERP segment", err)
		}
		return strings.TrimRight(string(data), "\x00"), nil
	}
	return "", nil
}

// muslVersion invokes the musl dynamic loader with no arguments, which
// prints a usage banner to stderr whose second line is "Version X.Y".
func muslVersion(loaderPath string) (string, error) {
	cmd := exec.Command(loaderPath)
	out, _ := cmd.CombinedOutput() // musl loader exits non-zero for this invocation
	return parseVersionLine(out, "Version ")
}

// glibcLoaderVersion invokes the glibc dynamic loader with --version, whose
// first line ends in "release version X.Y.".
func glibcLoaderVersion(loaderPath string) (string, error) {
	cmd := exec.Command(loaderPath, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", pexerr.Wrap(pexerr.KindInterpreterIdentification, loaderPath, "failed to run dynamic loader --version", err)
	}
	return parseVersionLine(out, "release version ")
}

func parseVersionLine(out []byte, marker string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if idx := strings.Index(line, marker); idx >= 0 {
			rest := line[idx+len(marker):]
			rest = strings.TrimSuffix(rest, ".")
			return strings.TrimSpace(rest), nil
		}
		if lineNum > 4 {
			break
		}
	}
	return "", pexerr.New(pexerr.KindInterpreterIdentification, "", fmt.Sprintf("could not find version marker %q in loader output", marker))
}
