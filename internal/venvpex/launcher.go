package venvpex

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/pexinfo"
	"github.com/czex/pexboot/internal/resources"
)

// LauncherArgs are the literal arguments baked into the generated
// boot(...) call at the end of __main__.py, per §4.7 step 6.
type LauncherArgs struct {
	ShebangPython  string
	VenvBinDir     string
	BinPath        pexinfo.VenvBinPath
	StripPexEnv    bool
	InjectEnv      map[string]string
	InjectArgs     []string
	EntryPoint     string
	Script         string
	HermeticReExec bool
}

// EmitLauncher writes __main__.py (shebang + embedded body + generated
// boot() call) and a "pex" alias pointing to it.
func EmitLauncher(venvRoot string, args LauncherArgs) error {
	mainPath := filepath.Join(venvRoot, "__main__.py")

	var b strings.Builder
	fmt.Fprintf(&b, "#!%s\n", args.ShebangPython)
	b.Write(resources.VenvPexLauncherBody)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "boot(\n")
	fmt.Fprintf(&b, "    %s,\n", pyStr(args.ShebangPython))
	fmt.Fprintf(&b, "    %s,\n", pyStr(args.VenvBinDir))
	fmt.Fprintf(&b, "    %s,\n", pyStr(string(args.BinPath)))
	fmt.Fprintf(&b, "    %s,\n", pyBool(args.StripPexEnv))
	fmt.Fprintf(&b, "    %s,\n", pyDict(args.InjectEnv))
	fmt.Fprintf(&b, "    %s,\n", pyList(args.InjectArgs))
	fmt.Fprintf(&b, "    %s,\n", pyStrOrNone(args.EntryPoint))
	fmt.Fprintf(&b, "    %s,\n", pyStrOrNone(args.Script))
	fmt.Fprintf(&b, "    %s,\n", pyBool(args.HermeticReExec))
	b.WriteString(")\n")

	if err := os.WriteFile(mainPath, []byte(b.String()), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, mainPath, "failed to write launcher", err)
	}

	aliasPath := filepath.Join(venvRoot, "pex")
	if runtime.GOOS == "windows" {
		data, err := os.ReadFile(mainPath)
		if err != nil {
			return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, mainPath, "failed to read launcher for alias copy", err)
		}
		return os.WriteFile(aliasPath, data, 0o755)
	}
	os.Remove(aliasPath)
	if err := os.Symlink("__main__.py", aliasPath); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, aliasPath, "failed to create pex alias symlink", err)
	}
	return nil
}

// ReplArgs are the generated prelude's literal inputs, per §4.7 step 7.
type ReplArgs struct {
	PexVersion   string
	Requirements []string
	BinPath      pexinfo.VenvBinPath
}

// EmitReplHelper writes pex-repl: the embedded REPL body plus a generated
// start_repl(...) call whose banner names the pex version, the number of
// requirements and the bin_path setting. The generated code sets no
// PS1/PS2 of its own and lists no per-requirement activation details.
func EmitReplHelper(venvRoot string, shebangPython string, args ReplArgs) error {
	path := filepath.Join(venvRoot, "pex-repl")

	var b strings.Builder
	fmt.Fprintf(&b, "#!%s\n", shebangPython)
	b.Write(resources.VenvPexReplBody)
	b.WriteString("\n\n")
	banner := fmt.Sprintf("pex %s (%d requirement(s), bin_path=%s)", args.PexVersion, len(args.Requirements), args.BinPath)
	fmt.Fprintf(&b, "start_repl(%s)\n", pyStr(banner))

	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return pexerr.Wrap(pexerr.KindInvalidPyvenvCfgFile, path, "failed to write pex-repl", err)
	}
	return nil
}

// ReEmitPexInfo writes the archive's original PEX-INFO bytes verbatim into
// the venv, per §4.7 step 8.
func ReEmitPexInfo(venvRoot string, raw []byte) error {
	path := filepath.Join(venvRoot, "PEX-INFO")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return pexerr.Wrap(pexerr.KindPexInfoNotFound, path, "failed to re-emit PEX-INFO", err)
	}
	return nil
}

func pyStr(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

func pyStrOrNone(s string) string {
	if s == "" {
		return "None"
	}
	return pyStr(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyList(items []string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = pyStr(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyDict(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%s: %s", pyStr(k), pyStr(v)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
