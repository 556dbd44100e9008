package main

import "os"

// Exit codes distinguishing failure modes for scripts driving pexboot.
const (
	ExitSuccess = 0

	// ExitGeneral covers argument/config errors and anything not listed below.
	ExitGeneral = 1

	// ExitUsage indicates invalid CLI usage.
	ExitUsage = 2

	// ExitInterpreterNotFound indicates no interpreter satisfied the archive's constraints.
	ExitInterpreterNotFound = 3

	// ExitArchiveInvalid indicates the archive could not be opened or its PEX-INFO is malformed.
	ExitArchiveInvalid = 4

	// ExitInstallFailed indicates venv construction failed.
	ExitInstallFailed = 5
)

func exitWithCode(code int) {
	os.Exit(code)
}
