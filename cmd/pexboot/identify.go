package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/czex/pexboot/internal/interpreter"
	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/resources"
	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <python>",
	Short: "Identify an interpreter and print its descriptor as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	prober := &interpreter.Prober{
		ProbeScript: resources.InterpreterProbe,
		CacheRoot:   cfg.CacheRoot,
		Logger:      log.Default(),
	}

	descriptor, err := prober.Identify(absPath)
	if err != nil {
		printBootError(err)
		exitWithCode(ExitInterpreterNotFound)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(descriptor)
}
