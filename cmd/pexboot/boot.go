package main

import (
	"fmt"
	"os"

	"github.com/czex/pexboot/internal/boot"
	"github.com/czex/pexboot/internal/buildinfo"
	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/pexerr"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stderrIsTerminal reports whether stderr is attached to a terminal.
// Replaceable for testing.
var stderrIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

var bootCmd = &cobra.Command{
	Use:                "boot <python> <archive> [-- args...]",
	Short:              "Resolve an interpreter, install (or reuse) a venv, and exec the archive",
	Args:               cobra.MinimumNArgs(2),
	DisableFlagParsing: true,
	RunE:               runBoot,
}

func runBoot(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pexboot boot <python> <archive> [-- args...]")
	}

	cfg := loadConfig()

	passthrough := args[2:]
	if len(passthrough) > 0 && passthrough[0] == "--" {
		passthrough = passthrough[1:]
	}

	// A first run for a given (archive, interpreter) pair builds a venv,
	// which can take a while; let an interactive user know pexboot hasn't
	// hung. Piped/redirected output gets none of this noise.
	if stderrIsTerminal() && !quietFlag {
		fmt.Fprintf(os.Stderr, "pexboot: resolving interpreter and venv for %s...\n", args[1])
	}

	rc, err := boot.Run(boot.Config{
		PythonPath:  args[0],
		ArchivePath: args[1],
		Args:        passthrough,
		CacheRoot:   cfg.CacheRoot,
		PexVersion:  buildinfo.Version(),
		Logger:      log.Default(),
	})
	if err != nil {
		printBootError(err)
		exitWithCode(ExitGeneral)
	}
	// On POSIX, boot.Run only returns on failure: a successful exec replaces
	// this process image and never reaches here. On Windows it returns the
	// translated exit code of the child it spawned.
	exitWithCode(rc)
	return nil
}

func printBootError(err error) {
	var pe *pexerr.Error
	if asPexErr(err, &pe) {
		fmt.Fprintf(os.Stderr, "pexboot: %s: %s\n", pe.Op, pe.Msg)
		return
	}
	fmt.Fprintf(os.Stderr, "pexboot: %v\n", err)
}

func asPexErr(err error, target **pexerr.Error) bool {
	for err != nil {
		if pe, ok := err.(*pexerr.Error); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
