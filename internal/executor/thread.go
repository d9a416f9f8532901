package executor

import (
	"fmt"
	"sync/atomic"

	"github.com/aryankumar/parbench/internal/util"
	"golang.org/x/sync/semaphore"
)

const (
	threadRunning int32 = iota + 1
	threadJoined
	threadDetached
)

// Thread is a handle to one spawned goroutine.
// A handle can be joined or detached exactly once; a nil handle is never joinable.
type Thread struct {
	id    int
	state atomic.Int32
	done  chan struct{}

	// err holds a panic recovered from the body, reported by Join
	err error
}

// ThreadSet is an ordered collection of thread handles owned by an executor
type ThreadSet []*Thread

// Spawn starts body on a new goroutine and returns its handle.
// It fails with ErrResourceExhausted when limiter has no budget left.
func Spawn(limiter *ThreadLimiter, id int, body func()) (*Thread, error) {
	if body == nil {
		return nil, util.ErrNilOperation
	}
	if err := limiter.acquire(); err != nil {
		return nil, fmt.Errorf("spawn thread %d: %w", id, err)
	}

	t := &Thread{
		id:   id,
		done: make(chan struct{}),
	}
	t.state.Store(threadRunning)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.err = util.NewPanicError(r)
			}
			limiter.release()
			close(t.done)
		}()
		body()
	}()

	return t, nil
}

// ID returns the index the thread was spawned with
func (t *Thread) ID() int {
	return t.id
}

// Joinable reports whether the thread has been neither joined nor detached
func (t *Thread) Joinable() bool {
	return t != nil && t.state.Load() == threadRunning
}

// Finished reports whether the thread body has returned
func (t *Thread) Finished() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Join blocks until the thread terminates.
// It returns ErrNotJoinable on a second join or after Detach, and a PanicError
// if the body panicked.
func (t *Thread) Join() error {
	if t == nil || !t.state.CompareAndSwap(threadRunning, threadJoined) {
		return fmt.Errorf("join thread: %w", util.ErrNotJoinable)
	}
	<-t.done
	if t.err != nil {
		return fmt.Errorf("thread %d: %w", t.id, t.err)
	}
	return nil
}

// Detach gives up the right to join the thread. The goroutine keeps running.
func (t *Thread) Detach() error {
	if t == nil || !t.state.CompareAndSwap(threadRunning, threadDetached) {
		return fmt.Errorf("detach thread: %w", util.ErrNotJoinable)
	}
	return nil
}

// Joinable counts the handles that still need a join
func (s ThreadSet) Joinable() int {
	n := 0
	for _, t := range s {
		if t.Joinable() {
			n++
		}
	}
	return n
}

// ThreadLimiter caps the number of threads alive at once.
// A nil limiter never refuses.
type ThreadLimiter struct {
	sem *semaphore.Weighted
	max int64
}

// NewThreadLimiter returns a limiter allowing at most max live threads.
// max <= 0 means unlimited and yields a nil limiter.
func NewThreadLimiter(max int) *ThreadLimiter {
	if max <= 0 {
		return nil
	}
	return &ThreadLimiter{
		sem: semaphore.NewWeighted(int64(max)),
		max: int64(max),
	}
}

// Max returns the configured budget, 0 for unlimited
func (l *ThreadLimiter) Max() int {
	if l == nil {
		return 0
	}
	return int(l.max)
}

func (l *ThreadLimiter) acquire() error {
	if l == nil {
		return nil
	}
	if !l.sem.TryAcquire(1) {
		return fmt.Errorf("%w: limit of %d threads reached", util.ErrResourceExhausted, l.max)
	}
	return nil
}

func (l *ThreadLimiter) release() {
	if l == nil {
		return
	}
	l.sem.Release(1)
}
