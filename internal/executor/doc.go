// Package executor provides the parallel execution engine used by parbench.
//
// The package implements two complementary strategies for CPU-bound numeric
// work, plus the thread-lifetime guard that keeps them leak-free.
//
// # Key Features
//
//   - Recursive fork/join traversal with a configurable inline threshold
//   - Pluggable schedulers: async, deferred and pooled
//   - Flat partitioning of a workload into one block per thread
//   - Monte-Carlo sampling with a private random source per block
//   - Guaranteed join of every spawned thread on all exit paths
//   - Distinct errors for operation, cleanup and resource failures
//
// # Fork/Join
//
// Traverse a range, splitting until sub-ranges fit the threshold:
//
//	fj := executor.NewForkJoin(25, executor.WithScheduler(executor.AsyncScheduler{}))
//
//	err := executor.ForEach(fj, values, func(v *float64) error {
//	    *v = math.Sin(*v)
//	    return nil
//	})
//
// # Partitioned Sampling
//
// Split a sample count into near-equal blocks, run them concurrently and
// average the results:
//
//	sampler := executor.NewSampler(executor.DefaultSamplerConfig(), logger, nil)
//
//	pi, err := sampler.Run(1_000_000, func(n int, rng *rand.Rand) (float64, error) {
//	    in := 0
//	    for i := 0; i < n; i++ {
//	        x, y := rng.Float64()*2-1, rng.Float64()*2-1
//	        if x*x+y*y < 1 {
//	            in++
//	        }
//	    }
//	    return 4 * float64(in) / float64(n), nil
//	})
//
// # Thread Lifetime
//
// A Guard references a ThreadSet and joins every joinable handle when
// released. Release it in a defer so it runs on every path:
//
//	guard := executor.NewGuard(&threads, logger)
//	defer func() { err = util.JoinExecution(err, guard.Release()) }()
//
// # Error Handling
//
// Failures surface where a unit's result is observed:
//
//   - *util.OperationError: an operation failed or panicked; carries the unit index
//   - util.ErrResourceExhausted: the thread budget refused a spawn
//   - *util.CleanupError: joining a thread failed; never hides an operation failure
//   - util.ErrInvalidRange: last < first, reported before any work
//
// # Concurrency Guarantees
//
//   - Every index of a traversal is visited exactly once
//   - Disjoint sub-ranges and blocks are the only synchronisation on user data
//   - Random sources are never shared between blocks
//   - No dispatched work is cancelled; both strategies block until it completes
package executor
