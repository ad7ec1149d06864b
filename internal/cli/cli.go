package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/bundlegrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("bundlegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
bundlegrid - An extension-bundle loader with isolated, parent-delegating contexts.

Usage:
  bundlegrid [options] [ROOT_DIR ...]

Arguments:
  ROOT_DIR
    One or more directories whose immediate subdirectories are bundle
    working directories (each containing a bundle.hcl manifest).

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a TOML configuration file.")
	rootsFlag := flagSet.String("roots", "", "Comma-separated bundle root directories.")
	baseIDFlag := flagSet.String("base-id", "", "Id of the base bundle all dependency-less bundles hang off.")
	adminPortFlag := flagSet.Int("admin-port", 0, "Port for the admin HTTP server. 0 runs a one-shot load.")
	scratchFlag := flagSet.String("scratch-dir", "", "Staging directory wiped before loading.")
	logLevelFlag := flagSet.String("log-level", "", "Log level: debug, info, warn, error.")
	logFormatFlag := flagSet.String("log-format", "", "Log format: text or json.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	cfg := app.Config{
		BaseBundleID: *baseIDFlag,
		LogLevel:     *logLevelFlag,
		LogFormat:    *logFormatFlag,
		AdminPort:    *adminPortFlag,
		ScratchDir:   *scratchFlag,
	}
	if *rootsFlag != "" {
		for _, root := range strings.Split(*rootsFlag, ",") {
			if root = strings.TrimSpace(root); root != "" {
				cfg.Roots = append(cfg.Roots, root)
			}
		}
	}
	cfg.Roots = append(cfg.Roots, flagSet.Args()...)

	if *configFlag != "" {
		if err := cfg.MergeFile(*configFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return validated, false, nil
}
