package executor

import (
	"fmt"
	"log/slog"

	"github.com/aryankumar/parbench/internal/util"
)

// DefaultThreshold is the largest sub-range a ForkJoin processes inline
const DefaultThreshold = 25

// ForkJoin traverses index ranges by recursive bisection.
//
// A range no longer than the threshold is scanned in order on the current
// goroutine. A longer range is split at its midpoint: the first half is
// submitted to the scheduler, the second half is traversed synchronously, and
// the submitted half is awaited before the call returns. Every index is
// visited exactly once, but halves run in no particular wall-clock order.
//
// The number of submitted tasks is not capped; a scheduler that cannot run
// them all concurrently is expected to defer the excess.
type ForkJoin struct {
	threshold int
	scheduler Scheduler
	logger    *slog.Logger
	recorder  Recorder
}

// ForkJoinOption configures a ForkJoin
type ForkJoinOption func(*ForkJoin)

// WithScheduler sets the scheduler used for the asynchronous halves
func WithScheduler(s Scheduler) ForkJoinOption {
	return func(f *ForkJoin) {
		if s != nil {
			f.scheduler = s
		}
	}
}

// WithForkJoinLogger sets the structured logger
func WithForkJoinLogger(logger *slog.Logger) ForkJoinOption {
	return func(f *ForkJoin) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithForkJoinRecorder sets the recorder notified of each submitted sub-task
func WithForkJoinRecorder(r Recorder) ForkJoinOption {
	return func(f *ForkJoin) {
		f.recorder = recorderOrNop(r)
	}
}

// NewForkJoin creates a traversal with the given threshold.
// Thresholds below 1 are raised to 1 so that single elements never split.
func NewForkJoin(threshold int, opts ...ForkJoinOption) *ForkJoin {
	if threshold < 1 {
		threshold = 1
	}
	f := &ForkJoin{
		threshold: threshold,
		scheduler: AsyncScheduler{},
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the effective inline threshold
func (f *ForkJoin) Threshold() int {
	return f.threshold
}

// Traverse applies op to every index in [first, last).
// It fails with ErrInvalidRange before doing any work when last < first.
// An op failure is returned as an OperationError once every sub-task has
// been awaited; sibling sub-tasks are not cancelled.
func (f *ForkJoin) Traverse(first, last int, op func(i int) error) error {
	if op == nil {
		return util.ErrNilOperation
	}
	if last < first {
		return fmt.Errorf("%w: [%d, %d)", util.ErrInvalidRange, first, last)
	}

	f.logger.Debug("fork/join traversal started",
		"first", first,
		"last", last,
		"threshold", f.threshold)

	err := f.traverse(first, last, op)
	if err != nil {
		f.logger.Debug("fork/join traversal failed", "error", err)
	}
	return err
}

func (f *ForkJoin) traverse(first, last int, op func(int) error) error {
	length := last - first
	if length <= f.threshold {
		return serial(first, last, op)
	}

	middle := first + length/2
	handle := f.scheduler.Submit(func() error {
		return f.traverse(first, middle, op)
	})
	f.recorder.TaskSubmitted()

	err := f.traverse(middle, last, op)
	if awaitErr := handle.Await(); err == nil {
		err = awaitErr
	}
	return err
}

// serial runs op over [first, last) in order and stops at the first failure
func serial(first, last int, op func(int) error) (err error) {
	i := first
	defer func() {
		if r := recover(); r != nil {
			err = util.WrapOperationError(i, util.NewPanicError(r))
		}
	}()
	for ; i < last; i++ {
		if opErr := op(i); opErr != nil {
			return util.WrapOperationError(i, opErr)
		}
	}
	return nil
}

// ForEach applies op to every element of items through f.
// Elements are passed by pointer so op may update them in place.
func ForEach[E any](f *ForkJoin, items []E, op func(*E) error) error {
	if op == nil {
		return util.ErrNilOperation
	}
	return f.Traverse(0, len(items), func(i int) error {
		return op(&items[i])
	})
}

// Traverse is a one-shot traversal of [first, last) using the async scheduler
func Traverse(first, last, threshold int, op func(i int) error) error {
	return NewForkJoin(threshold).Traverse(first, last, op)
}
