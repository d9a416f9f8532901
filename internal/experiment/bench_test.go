package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/aryankumar/parbench/internal/workload"
)

// BenchmarkPool_Execute benchmarks trial dispatch with different worker counts
func BenchmarkPool_Execute(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				pool := NewPool(workers, logger)
				for j := 0; j < 100; j++ {
					pool.Submit(Trial{
						Kernel: "noop",
						Execute: func(ctx context.Context) (float64, time.Duration, error) {
							return 0, 0, nil
						},
					})
				}
				b.StartTimer()
				pool.Execute(context.Background())
			}
		})
	}
}

// BenchmarkDriver_Run benchmarks a one-size sweep of every kernel
func BenchmarkDriver_Run(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := Config{Start: 10_000, End: 10_001, Step: 1, Trials: 1, Workers: 1}

	d, err := NewDriver(cfg, workload.DefaultEnv(logger), logger)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSummarize benchmarks result aggregation
func BenchmarkSummarize(b *testing.B) {
	results := make([]Result, 1000)
	for i := range results {
		results[i] = Result{Kernel: "pi", Duration: time.Duration(i) * time.Microsecond}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(results)
	}
}
