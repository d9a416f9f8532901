package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Trial is one timed execution of a kernel at a given size
type Trial struct {
	// Kernel and Variant identify the measured kernel
	Kernel  string
	Variant string

	// Size is the workload size passed to the kernel
	Size int

	// Index is the repetition number within its size, starting at 0
	Index int

	// Execute runs the kernel and reports its result value and the
	// duration of the timed section only
	Execute func(ctx context.Context) (value float64, elapsed time.Duration, err error)
}

// Result is the outcome of one trial
type Result struct {
	Kernel  string
	Variant string
	Size    int
	Index   int

	// Value is the kernel's result value (0 if an error occurred)
	Value float64

	// Error is any error the trial returned (nil if successful)
	Error error

	// Duration is the measured time of the kernel
	Duration time.Duration
}

// Pool runs trials on a bounded number of workers.
// With one worker, trials run strictly one after another so their timings do
// not interfere.
type Pool struct {
	workers int

	// mu protects trials
	mu     sync.Mutex
	trials []Trial

	logger *slog.Logger

	shutdown atomic.Bool
	running  atomic.Bool
}

// NewPool creates a pool with the given number of workers (minimum 1)
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers: workers,
		trials:  make([]Trial, 0),
		logger:  logger,
	}
}

// Submit queues a trial.
// Returns an error if the pool is shutting down or already running.
func (p *Pool) Submit(trial Trial) error {
	if p.shutdown.Load() {
		return fmt.Errorf("pool is shutting down, cannot submit new trials")
	}

	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new trials")
	}

	if trial.Kernel == "" {
		return fmt.Errorf("trial must name a kernel")
	}

	if trial.Execute == nil {
		return fmt.Errorf("trial must have an execute function")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.trials = append(p.trials, trial)
	p.logger.Debug("trial submitted",
		"kernel", trial.Kernel,
		"variant", trial.Variant,
		"size", trial.Size,
		"queued", len(p.trials))

	return nil
}

// Execute runs every queued trial and returns results in submission order
func (p *Pool) Execute(ctx context.Context) []Result {
	return p.ExecuteWithProgress(ctx, nil)
}

// ExecuteWithProgress runs every queued trial, calling progressFn after each
// one completes. Trials not started before ctx is cancelled are reported
// with an error wrapping ctx.Err(). The queue is emptied afterwards.
func (p *Pool) ExecuteWithProgress(ctx context.Context, progressFn func(completed, total int)) []Result {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return []Result{}
	}
	defer p.running.Store(false)

	p.mu.Lock()
	queued := p.trials
	p.trials = make([]Trial, 0)
	p.mu.Unlock()

	count := len(queued)
	if count == 0 {
		p.logger.Debug("no trials to execute")
		return []Result{}
	}

	p.logger.Debug("starting trials", "workers", p.workers, "trials", count)

	// Buffered to the trial count so neither side blocks
	trialChan := make(chan indexedTrial, count)
	resultChan := make(chan indexedResult, count)

	var completed atomic.Int32

	var wg sync.WaitGroup
	workerCount := min(p.workers, count)
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, trialChan, resultChan, &wg, &completed, count, progressFn)
	}

	for i, trial := range queued {
		trialChan <- indexedTrial{trial: trial, index: i}
	}
	close(trialChan)

	wg.Wait()
	close(resultChan)

	results := make([]Result, count)
	done := make([]bool, count)
	for res := range resultChan {
		results[res.index] = res.result
		done[res.index] = true
	}

	for i := range results {
		if !done[i] {
			results[i] = resultFor(queued[i])
			results[i].Error = fmt.Errorf("trial not executed: %w", ctx.Err())
		}
	}

	p.logger.Debug("trials completed",
		"total", count,
		"successful", CountSuccessful(results),
		"failed", CountFailed(results))

	return results
}

func (p *Pool) worker(
	ctx context.Context,
	workerID int,
	trialChan <-chan indexedTrial,
	resultChan chan<- indexedResult,
	wg *sync.WaitGroup,
	completed *atomic.Int32,
	total int,
	progressFn func(completed, total int),
) {
	defer wg.Done()

	for {
		// Cancellation is only observed between trials
		select {
		case <-ctx.Done():
			p.logger.Debug("worker stopping due to context cancellation", "worker_id", workerID)
			return
		default:
		}

		item, ok := <-trialChan
		if !ok {
			return
		}

		result := p.runTrial(ctx, item.trial)
		resultChan <- indexedResult{result: result, index: item.index}

		n := completed.Add(1)
		if progressFn != nil {
			progressFn(int(n), total)
		}
	}
}

// runTrial executes one trial, converting a panic into an error
func (p *Pool) runTrial(ctx context.Context, trial Trial) (result Result) {
	result = resultFor(trial)

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("trial panicked: %v", r)
			p.logger.Warn("trial panicked", "kernel", trial.Kernel, "size", trial.Size, "panic", r)
		}
	}()

	value, elapsed, err := trial.Execute(ctx)
	result.Duration = elapsed
	if err != nil {
		result.Error = err
		p.logger.Warn("trial failed",
			"kernel", trial.Kernel,
			"variant", trial.Variant,
			"size", trial.Size,
			"error", err)
		return result
	}

	result.Value = value
	return result
}

// Shutdown stops accepting trials and waits for a running batch to finish
// or for ctx to expire
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return fmt.Errorf("pool already shut down")
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for p.running.Load() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("shutdown timeout: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	p.logger.Debug("trial pool shut down")
	return nil
}

// IsShutdown reports whether Shutdown has been called
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// IsRunning reports whether a batch is executing
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// TrialCount returns the number of queued trials
func (p *Pool) TrialCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.trials)
}

// WorkerCount returns the number of workers
func (p *Pool) WorkerCount() int {
	return p.workers
}

func resultFor(t Trial) Result {
	return Result{
		Kernel:  t.Kernel,
		Variant: t.Variant,
		Size:    t.Size,
		Index:   t.Index,
	}
}

type indexedTrial struct {
	trial Trial
	index int
}

type indexedResult struct {
	result Result
	index  int
}
