// Package timer measures the wall-clock duration of a single operation.
package timer

import (
	"log/slog"
	"sync"
	"time"
)

// Timer starts measuring when it is created and stops once on Stop.
// Reading an unstopped timer reports the time elapsed so far.
type Timer struct {
	label string
	start time.Time
	now   func() time.Time

	mu      sync.Mutex
	stopped bool
	elapsed time.Duration
}

// Option configures a Timer
type Option func(*Timer)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// Start creates a running timer and logs label at debug level
func Start(label string, logger *slog.Logger, opts ...Option) *Timer {
	t := &Timer{label: label, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	if logger != nil {
		logger.Debug(label)
	}
	t.start = t.now()
	return t
}

// Label returns the message the timer was started with
func (t *Timer) Label() string {
	return t.label
}

// Stop freezes the timer and returns the measured duration.
// Later calls return the same value.
func (t *Timer) Stop() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.elapsed = t.now().Sub(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the frozen duration, or the running one before Stop
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return t.elapsed
	}
	return t.now().Sub(t.start)
}

// Seconds is Elapsed in floating-point seconds
func (t *Timer) Seconds() float64 {
	return t.Elapsed().Seconds()
}

// Measure times fn and returns its duration along with fn's error
func Measure(label string, logger *slog.Logger, fn func() error) (time.Duration, error) {
	t := Start(label, logger)
	err := fn()
	return t.Stop(), err
}
