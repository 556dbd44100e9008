// Command pexboot is the native runtime entry point for PEX archives: it
// resolves an interpreter, materializes (or reuses) a venv for the archive,
// and execs into it.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/czex/pexboot/internal/buildinfo"
	"github.com/czex/pexboot/internal/config"
	"github.com/czex/pexboot/internal/log"
	"github.com/spf13/cobra"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "pexboot",
	Short: "Native bootstrapper for PEX archives",
	Long: `pexboot resolves an interpreter satisfying a PEX archive's
constraints, materializes (or reuses) a venv installing its distributions,
and execs into it in place of the requesting process.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "show errors only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "show verbose output (INFO level)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "show debug output")

	rootCmd.PersistentPreRun = initLogger
	rootCmd.Version = buildinfo.Version()

	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(identifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitWithCode(ExitGeneral)
	}
}

func initLogger(cmd *cobra.Command, args []string) {
	level := determineLogLevel()
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	log.SetDefault(log.New(handler))
}

func determineLogLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	if verboseFlag {
		return slog.LevelInfo
	}
	if quietFlag {
		return slog.LevelError
	}
	if isTruthy(os.Getenv("PEXBOOT_DEBUG")) {
		return slog.LevelDebug
	}
	if isTruthy(os.Getenv("PEXBOOT_VERBOSE")) {
		return slog.LevelInfo
	}
	if isTruthy(os.Getenv("PEXBOOT_QUIET")) {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func isTruthy(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

func loadConfig() *config.Config {
	cfg, err := config.Load(config.DefaultConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pexboot: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	return cfg
}
