// Package metrics exports executor and experiment counters in the
// Prometheus exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parbench"

// Metrics holds the collectors of one parbench process.
// It implements executor.Recorder and is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	tasksSubmitted prometheus.Counter
	threadsSpawned prometheus.Counter
	inlineBlocks   prometheus.Counter
	trialFailures  *prometheus.CounterVec
	kernelDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forkjoin",
			Name:      "tasks_submitted_total",
			Help:      "Sub-tasks handed to a scheduler by fork/join traversals.",
		}),
		threadsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "partition",
			Name:      "threads_spawned_total",
			Help:      "Threads started by partitioned runs.",
		}),
		inlineBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "partition",
			Name:      "inline_blocks_total",
			Help:      "Blocks executed on the calling goroutine by partitioned runs.",
		}),
		trialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "experiment",
			Name:      "trial_failures_total",
			Help:      "Failed kernel trials.",
		}, []string{"kernel", "variant"}),
		kernelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "experiment",
			Name:      "kernel_duration_seconds",
			Help:      "Duration of single kernel trials.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, []string{"kernel", "variant"}),
	}

	m.registry.MustRegister(
		m.tasksSubmitted,
		m.threadsSpawned,
		m.inlineBlocks,
		m.trialFailures,
		m.kernelDuration,
	)
	return m
}

// Registry exposes the underlying registry, for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TaskSubmitted implements executor.Recorder
func (m *Metrics) TaskSubmitted() { m.tasksSubmitted.Inc() }

// ThreadSpawned implements executor.Recorder
func (m *Metrics) ThreadSpawned() { m.threadsSpawned.Inc() }

// InlineBlock implements executor.Recorder
func (m *Metrics) InlineBlock() { m.inlineBlocks.Inc() }

// ObserveTrial records one kernel trial
func (m *Metrics) ObserveTrial(kernel, variant string, d time.Duration, err error) {
	if err != nil {
		m.trialFailures.WithLabelValues(kernel, variant).Inc()
		return
	}
	m.kernelDuration.WithLabelValues(kernel, variant).Observe(d.Seconds())
}

// WriteToTextfile writes every metric to path in the text exposition format,
// as read by the node_exporter textfile collector
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
