package output

import (
	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/aryankumar/parbench/internal/stats"
	"github.com/aryankumar/parbench/internal/workload"
)

// Speedup compares the sequential and parallel series of one kernel
type Speedup struct {
	Kernel string  `json:"kernel" yaml:"kernel"`
	Ratio  float64 `json:"ratio" yaml:"ratio"`
}

// Speedups computes, per kernel with both variants, the mean sequential time
// over the mean parallel time. Kernels are listed in report order.
func Speedups(r *experiment.Report) []Speedup {
	seq := make(map[string]experiment.Series)
	par := make(map[string]experiment.Series)
	var order []string

	for _, s := range r.Series {
		switch workload.Variant(s.Variant) {
		case workload.Sequential:
			seq[s.Kernel] = s
		case workload.Parallel:
			par[s.Kernel] = s
		default:
			continue
		}
		if _, ok := seq[s.Kernel]; ok {
			if _, ok := par[s.Kernel]; ok {
				order = append(order, s.Kernel)
			}
		}
	}

	out := make([]Speedup, 0, len(order))
	for _, k := range order {
		out = append(out, Speedup{
			Kernel: k,
			Ratio:  stats.Speedup(stats.Mean(seq[k].Seconds()), stats.Mean(par[k].Seconds())),
		})
	}
	return out
}
