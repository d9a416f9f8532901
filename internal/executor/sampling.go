package executor

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aryankumar/parbench/internal/stats"
	"github.com/aryankumar/parbench/internal/util"
)

// SampleFunc performs blockSize independent trials using rng and returns one
// scalar summarising them, such as a hit ratio.
// rng belongs to the calling block alone and must not be shared.
type SampleFunc func(blockSize int, rng *rand.Rand) (float64, error)

// SamplerConfig configures a Sampler
type SamplerConfig struct {
	PartitionConfig

	// Seed derives every block's random source; 0 picks a fresh seed per run
	Seed uint64
}

// DefaultSamplerConfig returns the stock sampling policy
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{PartitionConfig: DefaultPartitionConfig()}
}

// Sampler spreads a Monte-Carlo workload across threads and averages the
// per-block results.
type Sampler struct {
	partitioner *Partitioner
	seed        uint64
	logger      *slog.Logger
}

// NewSampler creates a sampler
func NewSampler(cfg SamplerConfig, logger *slog.Logger, recorder Recorder) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		partitioner: NewPartitioner(cfg.PartitionConfig, logger, recorder),
		seed:        cfg.Seed,
		logger:      logger,
	}
}

// Plan returns the partition Run would use for total samples
func (s *Sampler) Plan(total int) Partition {
	return s.partitioner.Plan(total)
}

// Run executes fn over totalSamples samples and returns the arithmetic mean
// of the block results. With zero samples it returns 0 without calling fn or
// spawning anything. Any block failure aborts the aggregation.
func (s *Sampler) Run(totalSamples int, fn SampleFunc) (float64, error) {
	if fn == nil {
		return 0, util.ErrNilOperation
	}

	seed := s.seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	start := time.Now()
	partials, plan, err := RunBlocks(s.partitioner, totalSamples, func(b Block) (float64, error) {
		return fn(b.Size, newBlockRand(seed, b.Index))
	})
	if err != nil {
		s.logger.Warn("sampling run failed", "samples", totalSamples, "error", err)
		return 0, err
	}
	if len(partials) == 0 {
		return 0, nil
	}

	mean := stats.Mean(partials)
	s.logger.Debug("sampling run completed",
		"samples", totalSamples,
		"threads", plan.NumThreads,
		"result", mean,
		"duration", time.Since(start))

	return mean, nil
}

// newBlockRand gives every block its own PCG stream
func newBlockRand(seed uint64, block int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(block)+1))
}
