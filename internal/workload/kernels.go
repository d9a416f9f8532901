// Package workload holds the numeric kernels measured by parbench.
//
// Every kernel comes as a sequential baseline and a parallel variant built on
// the executors in internal/executor. Both variants of a kernel compute the
// same value, up to floating-point reassociation, so a run can be checked as
// well as timed.
package workload

import (
	"math"
	"math/rand/v2"

	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/stats"
)

// Iota returns 1, 2, ..., n as float64
func Iota(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i + 1)
	}
	return v
}

// scanTerm is the element step shared by the scan kernels.
// The first element of the whole input is copied as is.
func scanTerm(index int, x float64) float64 {
	if index == 0 {
		return x
	}
	return math.Sin(x)
}

// innerTerm is the transform of the reduce kernels
func innerTerm(a, b float64) float64 {
	return math.Sin(a) + math.Sin(b)
}

// ForEachSequential replaces every element with its sine in order
func ForEachSequential(v []float64) {
	for i := range v {
		v[i] = math.Sin(v[i])
	}
}

// ForEachParallel replaces every element with its sine through fj
func ForEachParallel(fj *executor.ForkJoin, v []float64) error {
	return executor.ForEach(fj, v, func(x *float64) error {
		*x = math.Sin(*x)
		return nil
	})
}

// PartialSum computes the running sum v[0], v[0]+sin(v[1]), ... in place
func PartialSum(v []float64) {
	acc := 0.0
	for i := range v {
		acc += scanTerm(i, v[i])
		v[i] = acc
	}
}

// InclusiveScan computes the same running sum as PartialSum in three passes:
// each block scans itself, block totals become offsets, then every block but
// the first adds its offset. Both passes share one plan.
func InclusiveScan(p *executor.Partitioner, v []float64) error {
	totals, plan, err := executor.RunBlocks(p, len(v), func(b executor.Block) (float64, error) {
		acc := 0.0
		for i := b.Offset; i < b.Offset+b.Size; i++ {
			acc += scanTerm(i, v[i])
			v[i] = acc
		}
		return acc, nil
	})
	if err != nil || len(totals) < 2 {
		return err
	}

	offsets := make([]float64, len(totals))
	for i := 1; i < len(totals); i++ {
		offsets[i] = offsets[i-1] + totals[i-1]
	}

	_, _, err = executor.RunPlan(p, plan, func(b executor.Block) (struct{}, error) {
		off := offsets[b.Index]
		if off == 0 {
			return struct{}{}, nil
		}
		for i := b.Offset; i < b.Offset+b.Size; i++ {
			v[i] += off
		}
		return struct{}{}, nil
	})
	return err
}

// InnerProduct sums sin(a[i]) + sin(b[i]) in order
func InnerProduct(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		total += innerTerm(a[i], b[i])
	}
	return total
}

// TransformReduce computes InnerProduct with one partial sum per block
func TransformReduce(p *executor.Partitioner, a, b []float64) (float64, error) {
	partials, _, err := executor.RunBlocks(p, len(a), func(blk executor.Block) (float64, error) {
		return InnerProduct(a[blk.Offset:blk.Offset+blk.Size], b[blk.Offset:blk.Offset+blk.Size]), nil
	})
	if err != nil {
		return 0, err
	}
	return stats.Sum(partials), nil
}

// PiHits counts, out of n points uniform in [-1, 1)², those strictly inside
// the unit circle
func PiHits(n int, rng *rand.Rand) int {
	in := 0
	for i := 0; i < n; i++ {
		x := 2*rng.Float64() - 1
		y := 2*rng.Float64() - 1
		if x*x+y*y < 1 {
			in++
		}
	}
	return in
}

// EstimatePi is the geometric estimate 4 * inside / total, or 0 for n == 0
func EstimatePi(n int, rng *rand.Rand) float64 {
	if n == 0 {
		return 0
	}
	return 4 * float64(PiHits(n, rng)) / float64(n)
}

// EstimatePiParallel averages the per-block estimates of s
func EstimatePiParallel(s *executor.Sampler, n int) (float64, error) {
	return s.Run(n, func(blockSize int, rng *rand.Rand) (float64, error) {
		return EstimatePi(blockSize, rng), nil
	})
}
