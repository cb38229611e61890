// Command bootstrapctl inspects and launches processes with the bootstrapper.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/k2io/bootstrapper/cmd/bootstrapctl/cmd"
	"github.com/k2io/bootstrapper/internal/logging"

	"github.com/pterm/pterm"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
)

func main() {
	exitCode := exitCodeSuccess

	defer func() {
		if err := recover(); err != nil {
			exitCode = exitCodeFailure
			pterm.Error.Println(fmt.Errorf("%v", err))
			slog.Error("unexpected error", "error", err)
		}

		if err := logging.Finalize(); err != nil {
			pterm.Warning.Println(err)
		}
		os.Exit(exitCode)
	}()

	if err := cmd.CreateRootCmd().Execute(); err != nil {
		exitCode = exitCodeFailure
		pterm.Error.Println(err)
		slog.Debug("command failed", "error", err)
	}
}
