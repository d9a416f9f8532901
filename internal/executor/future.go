package executor

import (
	"github.com/aryankumar/parbench/internal/util"
)

// Future is the pending result of a packaged task.
// Get blocks until the task has produced a value or failed.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Get waits for the result. It may be called any number of times.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await waits for completion and reports only the failure, if any
func (f *Future[T]) Await() error {
	_, err := f.Get()
	return err
}

// Ready reports whether the result is available without blocking
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// packagedTask binds a function to the future that receives its result
type packagedTask[T any] struct {
	fn     func() (T, error)
	future *Future[T]
}

func newPackagedTask[T any](fn func() (T, error)) (*packagedTask[T], *Future[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return &packagedTask[T]{fn: fn, future: f}, f
}

// run executes the task on the calling goroutine and resolves the future.
// A panic in fn resolves the future with a PanicError instead of escaping.
func (p *packagedTask[T]) run() {
	f := p.future
	defer func() {
		if r := recover(); r != nil {
			f.err = util.NewPanicError(r)
		}
		close(f.done)
	}()
	f.value, f.err = p.fn()
}
