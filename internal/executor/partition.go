package executor

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/aryankumar/parbench/internal/util"
)

const (
	// DefaultMinSamplesPerThread keeps tiny workloads from being over-partitioned
	DefaultMinSamplesPerThread = 25

	// DefaultFallbackParallelism is used when the platform reports no parallelism
	DefaultFallbackParallelism = 2
)

// PartitionConfig holds the thread-count policy of a partitioned run
type PartitionConfig struct {
	// MinPerThread is the smallest workload worth a thread of its own
	MinPerThread int

	// FallbackParallelism replaces a platform report of zero
	FallbackParallelism int

	// MaxThreads caps live spawned threads; 0 means unlimited.
	// Exceeding it fails the run with ErrResourceExhausted.
	MaxThreads int

	// Parallelism reports available hardware parallelism; nil uses runtime.NumCPU
	Parallelism func() int
}

// DefaultPartitionConfig returns the stock policy
func DefaultPartitionConfig() PartitionConfig {
	return PartitionConfig{
		MinPerThread:        DefaultMinSamplesPerThread,
		FallbackParallelism: DefaultFallbackParallelism,
	}
}

// Block is one contiguous slice of a partitioned workload
type Block struct {
	Index  int
	Offset int
	Size   int
}

// Partition describes how a workload is split across threads
type Partition struct {
	Total                int   `json:"total" yaml:"total"`
	MaxThreadsByWorkload int   `json:"maxThreadsByWorkload" yaml:"maxThreadsByWorkload"`
	AvailableParallelism int   `json:"availableParallelism" yaml:"availableParallelism"`
	NumThreads           int   `json:"numThreads" yaml:"numThreads"`
	BlockSize            int   `json:"blockSize" yaml:"blockSize"`
	Blocks               []int `json:"blocks" yaml:"blocks"`
}

// Spawned is the number of threads started besides the caller
func (p Partition) Spawned() int {
	return p.NumThreads - 1
}

// Block returns the i-th block with its offset into the workload
func (p Partition) Block(i int) Block {
	return Block{
		Index:  i,
		Offset: i * p.BlockSize,
		Size:   p.Blocks[i],
	}
}

// PlanPartition computes the partition of total units.
//
//	maxThreadsByWorkload = ceil(total / minPerThread)
//	numThreads           = max(1, min(available, maxThreadsByWorkload))
//	blockSize            = total / numThreads
//
// The last block also takes the remainder of the division.
func PlanPartition(total, minPerThread, available int) Partition {
	if minPerThread < 1 {
		minPerThread = 1
	}
	if total < 0 {
		total = 0
	}

	maxByWorkload := (total + minPerThread - 1) / minPerThread
	numThreads := min(available, maxByWorkload)
	if numThreads < 1 {
		numThreads = 1
	}

	blockSize := total / numThreads
	blocks := make([]int, numThreads)
	for i := 0; i < numThreads-1; i++ {
		blocks[i] = blockSize
	}
	blocks[numThreads-1] = total - blockSize*(numThreads-1)

	return Partition{
		Total:                total,
		MaxThreadsByWorkload: maxByWorkload,
		AvailableParallelism: available,
		NumThreads:           numThreads,
		BlockSize:            blockSize,
		Blocks:               blocks,
	}
}

// Partitioner runs a workload as one block per thread, the last block on
// the calling goroutine, and joins every spawned thread before returning.
type Partitioner struct {
	cfg      PartitionConfig
	limiter  *ThreadLimiter
	logger   *slog.Logger
	recorder Recorder
}

// NewPartitioner creates a partitioner. Zero config fields take their defaults.
func NewPartitioner(cfg PartitionConfig, logger *slog.Logger, recorder Recorder) *Partitioner {
	if cfg.MinPerThread <= 0 {
		cfg.MinPerThread = DefaultMinSamplesPerThread
	}
	if cfg.FallbackParallelism <= 0 {
		cfg.FallbackParallelism = DefaultFallbackParallelism
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Partitioner{
		cfg:      cfg,
		limiter:  NewThreadLimiter(cfg.MaxThreads),
		logger:   logger,
		recorder: recorderOrNop(recorder),
	}
}

// Config returns the effective configuration
func (p *Partitioner) Config() PartitionConfig {
	return p.cfg
}

// AvailableParallelism queries the platform, falling back when it reports 0
func (p *Partitioner) AvailableParallelism() int {
	n := 0
	if p.cfg.Parallelism != nil {
		n = p.cfg.Parallelism()
	} else {
		n = runtime.NumCPU()
	}
	if n <= 0 {
		return p.cfg.FallbackParallelism
	}
	return n
}

// Plan partitions total units under the current policy
func (p *Partitioner) Plan(total int) Partition {
	return PlanPartition(total, p.cfg.MinPerThread, p.AvailableParallelism())
}

// blockSet pairs each spawned thread with the future of its block.
// Both slices are sized once, by newBlockSet, and never resized.
type blockSet[T any] struct {
	threads ThreadSet
	futures []*Future[T]
}

func newBlockSet[T any](n int) *blockSet[T] {
	return &blockSet[T]{
		threads: make(ThreadSet, n),
		futures: make([]*Future[T], n),
	}
}

func (b *blockSet[T]) len() int {
	return len(b.futures)
}

// launch spawns block i; the future is bound before the thread starts
func (b *blockSet[T]) launch(i int, limiter *ThreadLimiter, fn func() (T, error)) error {
	task, future := newPackagedTask(fn)
	b.futures[i] = future
	t, err := Spawn(limiter, i, task.run)
	if err != nil {
		return err
	}
	b.threads[i] = t
	return nil
}

// collect retrieves every future in index order into out[0:len]
func (b *blockSet[T]) collect(out []T) error {
	for i, f := range b.futures {
		v, err := f.Get()
		if err != nil {
			return util.WrapOperationError(i, err)
		}
		out[i] = v
	}
	return nil
}

// RunBlocks executes fn once per block of p's plan for total units and
// returns the per-block results in block order.
//
// Blocks 0..n-2 run on spawned threads, block n-1 runs on the caller. A Guard
// joins every spawned thread on all exit paths, so nothing outlives the call.
// When total is 0 fn is never called and the result is empty.
func RunBlocks[T any](p *Partitioner, total int, fn func(Block) (T, error)) ([]T, Partition, error) {
	if total < 0 {
		return nil, Partition{}, fmt.Errorf("%w: %d", util.ErrInvalidSampleCount, total)
	}
	return RunPlan(p, p.Plan(total), fn)
}

// RunPlan executes fn once per block of an existing plan. Multi-pass
// algorithms use it to keep block boundaries fixed between passes.
func RunPlan[T any](p *Partitioner, plan Partition, fn func(Block) (T, error)) (results []T, _ Partition, err error) {
	if fn == nil {
		return nil, plan, util.ErrNilOperation
	}
	if plan.NumThreads != len(plan.Blocks) || (plan.Total > 0 && plan.NumThreads < 1) {
		return nil, plan, fmt.Errorf("%w: plan has %d threads and %d blocks",
			util.ErrInvalidRange, plan.NumThreads, len(plan.Blocks))
	}
	total := plan.Total
	if total == 0 {
		return nil, plan, nil
	}

	start := time.Now()
	p.logger.Debug("partitioned run started",
		"total", total,
		"threads", plan.NumThreads,
		"block_size", plan.BlockSize)

	blocks := newBlockSet[T](plan.Spawned())
	guard := NewGuard(&blocks.threads, p.logger)
	defer func() {
		if cleanupErr := guard.Release(); cleanupErr != nil {
			err = util.JoinExecution(err, cleanupErr)
			results = nil
		}
	}()

	for i := 0; i < blocks.len(); i++ {
		block := plan.Block(i)
		if err := blocks.launch(i, p.limiter, func() (T, error) { return fn(block) }); err != nil {
			p.logger.Warn("failed to spawn block thread", "block", i, "error", err)
			return nil, plan, err
		}
		p.recorder.ThreadSpawned()
	}

	last := plan.Block(plan.NumThreads - 1)
	lastResult, err := callInline(fn, last)
	p.recorder.InlineBlock()
	if err != nil {
		return nil, plan, util.WrapOperationError(last.Index, err)
	}

	results = make([]T, plan.NumThreads)
	if err := blocks.collect(results); err != nil {
		return nil, plan, err
	}
	results[last.Index] = lastResult

	p.logger.Debug("partitioned run completed",
		"total", total,
		"threads", plan.NumThreads,
		"duration", time.Since(start))

	return results, plan, nil
}

// callInline runs fn on the current goroutine, converting a panic to an error
func callInline[T any](fn func(Block) (T, error), b Block) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.NewPanicError(r)
		}
	}()
	return fn(b)
}
