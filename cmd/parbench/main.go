package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aryankumar/parbench/internal/cli"
	"github.com/aryankumar/parbench/internal/util"
)

func main() {
	// Interrupting a sweep stops it between trials
	ctx := util.SetupSignalHandler(context.Background(), slog.Default())

	if err := cli.Execute(ctx); err != nil {
		slog.Error(util.FriendlyError(err), "error", err)
		os.Exit(1)
	}
}
