package config

// BenchConfig represents the parbench configuration file structure
type BenchConfig struct {
	// Experiment describes the size sweep of the run command
	Experiment ExperimentConfig `yaml:"experiment" json:"experiment"`

	// ForkJoin configures the recursive fork/join executor
	ForkJoin ForkJoinConfig `yaml:"forkJoin" json:"forkJoin"`

	// Sampling configures the partitioned sampling executor
	Sampling SamplingConfig `yaml:"sampling" json:"sampling"`

	// Output contains rendering settings
	Output OutputConfig `yaml:"output" json:"output"`
}

// ExperimentConfig describes a size sweep
type ExperimentConfig struct {
	// Start is the first workload size
	Start int `yaml:"start" json:"start"`

	// End bounds the sweep; it is never run itself
	End int `yaml:"end" json:"end"`

	// Step is the size increment
	Step int `yaml:"step" json:"step"`

	// Trials is the number of timings averaged per size
	Trials int `yaml:"trials" json:"trials"`

	// Workers is the number of trials run at once
	Workers int `yaml:"workers" json:"workers"`

	// Kernels selects kernels by name; empty means all
	Kernels []string `yaml:"kernels,omitempty" json:"kernels,omitempty"`
}

// ForkJoinConfig configures the fork/join executor
type ForkJoinConfig struct {
	// Threshold is the largest range processed without splitting
	Threshold int `yaml:"threshold" json:"threshold"`

	// Scheduler is one of async, deferred or pooled
	Scheduler string `yaml:"scheduler" json:"scheduler"`

	// PoolSize bounds the pooled scheduler; 0 means one slot per CPU
	PoolSize int `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
}

// SamplingConfig configures the partitioned sampling executor
type SamplingConfig struct {
	// MinSamplesPerThread is the smallest block worth its own thread
	MinSamplesPerThread int `yaml:"minSamplesPerThread" json:"minSamplesPerThread"`

	// FallbackParallelism replaces a hardware report of zero
	FallbackParallelism int `yaml:"fallbackParallelism" json:"fallbackParallelism"`

	// MaxThreads caps live spawned threads; 0 means unlimited
	MaxThreads int `yaml:"maxThreads,omitempty" json:"maxThreads,omitempty"`

	// Seed fixes the random streams; 0 picks a fresh seed per run
	Seed uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// OutputConfig contains rendering settings
type OutputConfig struct {
	// Format is the report format (table, json, yaml, plain)
	Format string `yaml:"format" json:"format"`

	// File receives the report instead of stdout
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty"`

	// MetricsFile receives executor metrics in the Prometheus text format
	MetricsFile string `yaml:"metricsFile,omitempty" json:"metricsFile,omitempty"`
}
