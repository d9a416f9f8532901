package executor

import (
	"log/slog"
	"sync/atomic"

	"github.com/aryankumar/parbench/internal/util"
)

// noCopy makes `go vet` flag copies of the structs that embed it
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Guard joins every thread of a ThreadSet when its scope ends.
//
// The guard does not own the threads: it keeps a reference to the caller's
// set, so handles stored after the guard is created are still joined.
// Typical use is
//
//	guard := NewGuard(&threads, logger)
//	defer func() { err = util.JoinExecution(err, guard.Release()) }()
//
// Release is idempotent: only the first call joins anything, so two deferred
// releases never join the same handle twice.
type Guard struct {
	noCopy noCopy

	threads  *ThreadSet
	released atomic.Bool
	logger   *slog.Logger
}

// NewGuard acquires guarding responsibility for threads
func NewGuard(threads *ThreadSet, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		threads: threads,
		logger:  logger,
	}
}

// Release joins every joinable handle in index order and skips the rest.
// It never panics; join failures are collected into a CleanupError and
// joining continues with the next handle.
func (g *Guard) Release() error {
	if g == nil || g.threads == nil || !g.released.CompareAndSwap(false, true) {
		return nil
	}

	cleanup := &util.CleanupError{}
	joined := 0
	for i, t := range *g.threads {
		if !t.Joinable() {
			continue
		}
		if err := safeJoin(t); err != nil {
			g.logger.Warn("thread join failed", "thread", i, "error", err)
			cleanup.Add(err)
			continue
		}
		joined++
	}

	g.logger.Debug("guard released", "threads", len(*g.threads), "joined", joined)
	return cleanup.ErrorOrNil()
}

// Released reports whether Release has run
func (g *Guard) Released() bool {
	return g.released.Load()
}

// safeJoin converts a panic raised while joining into an error
func safeJoin(t *Thread) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.NewPanicError(r)
		}
	}()
	return t.Join()
}
