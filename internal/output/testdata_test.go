package output

import (
	"time"

	"github.com/aryankumar/parbench/internal/experiment"
)

func sampleReport() *experiment.Report {
	return &experiment.Report{
		Sizes:    []int{100, 200},
		Trials:   2,
		Started:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Series: []experiment.Series{
			{
				Kernel: "scan", Variant: "sequential", Label: "Sequential partial_sum",
				Points: []experiment.Point{
					{Size: 100, Seconds: 0.004, StdDev: 0.0001, Value: 1.5, Trials: 2},
					{Size: 200, Seconds: 0.008, StdDev: 0.0002, Value: 1.7, Trials: 2},
				},
			},
			{
				Kernel: "scan", Variant: "parallel", Label: "Parallel inclusive_scan",
				Points: []experiment.Point{
					{Size: 100, Seconds: 0.002, Value: 1.5, Trials: 2},
					{Size: 200, Seconds: 0.004, Value: 1.7, Trials: 1, Failures: 1},
				},
			},
		},
	}
}
