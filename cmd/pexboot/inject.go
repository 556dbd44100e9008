package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Not implemented: archive-rewriting is out of scope for pexboot",
	Long: `pexboot inject is not implemented.

Rewriting a PEX archive's interpreter/venv configuration in place is a
build-time concern handled by the external CZEX packaging tool, not by
this runtime bootstrapper. This command exists only so the CLI surface
documents the full tool family without pretending to own it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("pexboot inject: not implemented; see the czex packaging tool")
		exitWithCode(ExitUsage)
		return nil
	},
}
