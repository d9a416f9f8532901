package executor

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/aryankumar/parbench/internal/util"
	"golang.org/x/sync/semaphore"
)

// Handle is the pending completion of a submitted task
type Handle interface {
	// Await blocks until the task has finished and returns its failure, if any
	Await() error
}

// Scheduler decides where and when a submitted task runs.
// Callers must not assume the task starts before Await is called.
type Scheduler interface {
	Submit(task func() error) Handle
}

// Scheduler policy names accepted by NewScheduler
const (
	SchedulerAsync    = "async"
	SchedulerDeferred = "deferred"
	SchedulerPooled   = "pooled"
)

// NewScheduler builds a scheduler from its policy name.
// poolSize only applies to the pooled policy; <= 0 means runtime.NumCPU().
func NewScheduler(kind string, poolSize int) (Scheduler, error) {
	switch kind {
	case SchedulerAsync, "":
		return AsyncScheduler{}, nil
	case SchedulerDeferred:
		return DeferredScheduler{}, nil
	case SchedulerPooled:
		return NewPooledScheduler(poolSize), nil
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownScheduler, kind)
	}
}

// AsyncScheduler runs every task on its own new goroutine right away
type AsyncScheduler struct{}

// Submit starts task eagerly
func (AsyncScheduler) Submit(task func() error) Handle {
	p, f := newPackagedTask(func() (struct{}, error) {
		return struct{}{}, task()
	})
	go p.run()
	return f
}

// DeferredScheduler runs each task lazily on the goroutine that awaits it
type DeferredScheduler struct{}

// Submit records task without running it
func (DeferredScheduler) Submit(task func() error) Handle {
	return newDeferredHandle(task)
}

type deferredHandle struct {
	once sync.Once
	task *packagedTask[struct{}]
	f    *Future[struct{}]
}

func newDeferredHandle(task func() error) *deferredHandle {
	p, f := newPackagedTask(func() (struct{}, error) {
		return struct{}{}, task()
	})
	return &deferredHandle{task: p, f: f}
}

func (h *deferredHandle) Await() error {
	h.once.Do(h.task.run)
	return h.f.Await()
}

// PooledScheduler runs tasks on goroutines while it has free slots.
// When every slot is busy the task is deferred to its awaiting goroutine,
// so nested submissions never block waiting for a slot.
type PooledScheduler struct {
	slots *semaphore.Weighted
	size  int
}

// NewPooledScheduler creates a scheduler with size concurrent slots
func NewPooledScheduler(size int) *PooledScheduler {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &PooledScheduler{
		slots: semaphore.NewWeighted(int64(size)),
		size:  size,
	}
}

// Size returns the number of concurrent slots
func (s *PooledScheduler) Size() int {
	return s.size
}

// Submit starts task on a free slot or defers it
func (s *PooledScheduler) Submit(task func() error) Handle {
	if !s.slots.TryAcquire(1) {
		return newDeferredHandle(task)
	}
	p, f := newPackagedTask(func() (struct{}, error) {
		defer s.slots.Release(1)
		return struct{}{}, task()
	})
	go p.run()
	return f
}
