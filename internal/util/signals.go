package util

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// The cancellation cause wraps ErrCancelled and names the signal, so a sweep
// interrupted mid-way can still report its partial results. A second signal
// exits immediately.
func SetupSignalHandler(parent context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal, finishing current trial", "signal", sig.String())
			cancel(fmt.Errorf("%w: received %s", ErrCancelled, sig))
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}

		sig := <-sigCh
		logger.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}
