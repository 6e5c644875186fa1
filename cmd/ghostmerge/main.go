// Command ghostmerge matches and merges two security finding collections.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentstation/ghostmerge/cmd/ghostmerge/app"
	"github.com/agentstation/ghostmerge/pkg/constants"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	a, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// An interrupt during an interactive merge aborts it without writing outputs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := a.Execute(ctx, os.Args[1:])

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		a.Logger().Error().Err(err).Msg("Shutdown failed")
	}
	if runErr != nil {
		app.ExitOnError(runErr)
	}
}
