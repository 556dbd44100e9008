package venvpex

import (
	"path/filepath"

	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/pexinfo"
	"github.com/czex/pexboot/internal/pexzip"
	"github.com/czex/pexboot/internal/tags"
	"github.com/czex/pexboot/internal/venv"
)

// Params bundles everything Install needs to build a fresh venv inside
// scratchDir, the scratch path handed in by cachedir.CreateAtomic's build
// callback.
type Params struct {
	Archive      *pexzip.Archive
	Info         *pexinfo.Info
	RawPexInfo   []byte
	Ranked       *tags.RankedTags
	BaseInterp   venv.BaseInterpreter
	DestPath     string // final published path the venv will live at
	PexVersion   string
	LegacyVenvPy []byte
	Logger       log.Logger
}

// Install runs §4.7 steps 1–8 against scratchDir, producing a fully formed
// (but not yet published — that is cachedir.CreateAtomic's job) venv tree.
func Install(scratchDir string, p Params) error {
	logger := p.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	v, err := venv.Create(scratchDir, p.BaseInterp, venv.Config{
		SystemSitePackages: p.Info.VenvSystemSitePackages,
		WithPip:            false,
		VenvCopies:         p.Info.VenvCopies,
		LegacyVirtualenvPy: p.LegacyVenvPy,
	}, logger)
	if err != nil {
		return err
	}

	wheels, err := SelectWheels(p.Archive, p.Info, p.Ranked)
	if err != nil {
		return err
	}

	sitePackages := v.SitePackagesPath()
	if err := Extract(p.Archive, wheels, sitePackages); err != nil {
		return err
	}
	if err := Spread(wheels, sitePackages, scratchDir); err != nil {
		return err
	}
	if err := Cleanup(sitePackages); err != nil {
		return err
	}

	destInterpreter := filepath.Join(p.DestPath, filepath.FromSlash(v.InterpreterRelpath))
	binDir := filepath.Dir(filepath.Join(scratchDir, filepath.FromSlash(v.InterpreterRelpath)))
	if err := RewriteShebangs(binDir, destInterpreter); err != nil {
		return err
	}

	destBinDir := filepath.Dir(destInterpreter)
	launcherArgs := LauncherArgs{
		ShebangPython:  destInterpreter,
		VenvBinDir:     destBinDir,
		BinPath:        p.Info.VenvBinPath,
		StripPexEnv:    p.Info.StripPexEnv,
		InjectEnv:      p.Info.InjectEnv,
		InjectArgs:     p.Info.InjectArgs,
		EntryPoint:     derefOr(p.Info.EntryPoint),
		Script:         derefOr(p.Info.Script),
		HermeticReExec: p.Info.VenvHermeticScripts,
	}
	if err := EmitLauncher(scratchDir, launcherArgs); err != nil {
		return err
	}

	if err := EmitReplHelper(scratchDir, destInterpreter, ReplArgs{
		PexVersion:   p.PexVersion,
		Requirements: p.Info.Requirements,
		BinPath:      p.Info.VenvBinPath,
	}); err != nil {
		return err
	}

	return ReEmitPexInfo(scratchDir, p.RawPexInfo)
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
