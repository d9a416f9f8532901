package executor

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aryankumar/parbench/internal/util"
)

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name         string
		kind         string
		wantErr      bool
		expectedType string
	}{
		{name: "empty defaults to async", kind: "", expectedType: "executor.AsyncScheduler"},
		{name: "async", kind: SchedulerAsync, expectedType: "executor.AsyncScheduler"},
		{name: "deferred", kind: SchedulerDeferred, expectedType: "executor.DeferredScheduler"},
		{name: "pooled", kind: SchedulerPooled, expectedType: "*executor.PooledScheduler"},
		{name: "unknown", kind: "work-stealing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.kind, 2)
			if tt.wantErr {
				if !errors.Is(err, util.ErrUnknownScheduler) {
					t.Errorf("expected ErrUnknownScheduler, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(s); got != tt.expectedType {
				t.Errorf("expected %s, got %s", tt.expectedType, got)
			}
		})
	}
}

func TestAsyncScheduler(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	h := AsyncScheduler{}.Submit(func() error {
		close(started)
		<-release
		return errors.New("async failure")
	})

	// The task runs without anyone awaiting it
	<-started
	close(release)

	if err := h.Await(); err == nil || err.Error() != "async failure" {
		t.Errorf("expected async failure, got %v", err)
	}
}

func TestDeferredScheduler(t *testing.T) {
	var runs atomic.Int32
	h := DeferredScheduler{}.Submit(func() error {
		runs.Add(1)
		return nil
	})

	if runs.Load() != 0 {
		t.Fatal("deferred task ran before Await")
	}

	if err := h.Await(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Await(); err != nil {
		t.Fatalf("unexpected error on second await: %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("expected exactly one run, got %d", runs.Load())
	}
}

func TestDeferredScheduler_Panic(t *testing.T) {
	h := DeferredScheduler{}.Submit(func() error { panic("lazy boom") })
	if err := h.Await(); !util.IsPanic(err) {
		t.Errorf("expected PanicError, got %v", err)
	}
}

func TestPooledScheduler_DefersWhenSaturated(t *testing.T) {
	s := NewPooledScheduler(1)
	if s.Size() != 1 {
		t.Fatalf("expected size 1, got %d", s.Size())
	}

	release := make(chan struct{})
	started := make(chan struct{})
	first := s.Submit(func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	var secondRan atomic.Bool
	second := s.Submit(func() error {
		secondRan.Store(true)
		return nil
	})

	if secondRan.Load() {
		t.Fatal("second task should be deferred while the only slot is busy")
	}

	// Awaiting the deferred task runs it on this goroutine
	if err := second.Await(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !secondRan.Load() {
		t.Error("deferred task did not run on Await")
	}

	close(release)
	if err := first.Await(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The slot is free again
	third := s.Submit(func() error { return nil })
	if err := third.Await(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPooledScheduler_DefaultSize(t *testing.T) {
	if s := NewPooledScheduler(0); s.Size() < 1 {
		t.Errorf("expected at least one slot, got %d", s.Size())
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case AsyncScheduler:
		return "executor.AsyncScheduler"
	case DeferredScheduler:
		return "executor.DeferredScheduler"
	case *PooledScheduler:
		return "*executor.PooledScheduler"
	default:
		return "unknown"
	}
}
