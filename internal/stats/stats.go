// Package stats holds the order-independent combiners used to aggregate
// per-block and per-trial results.
package stats

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating-point type
type Number interface {
	constraints.Integer | constraints.Float
}

// Sum adds xs as float64
func Sum[T Number](xs []T) float64 {
	var total float64
	for _, x := range xs {
		total += float64(x)
	}
	return total
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice
func Mean[T Number](xs []T) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// StdDev returns the population standard deviation of xs
func StdDev[T Number](xs []T) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var acc float64
	for _, x := range xs {
		d := float64(x) - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(xs)))
}

// MinMax returns the smallest and largest element of xs
func MinMax[T constraints.Ordered](xs []T) (lo, hi T) {
	if len(xs) == 0 {
		return lo, hi
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// Speedup is baseline / candidate, or 0 when candidate is 0
func Speedup(baseline, candidate float64) float64 {
	if candidate == 0 {
		return 0
	}
	return baseline / candidate
}

// AlmostEqual compares a and b with a relative tolerance
func AlmostEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return diff <= tol*scale
}
