package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/internal/util"
	"github.com/aryankumar/parbench/internal/workload"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".parbench"
	defaultConfigDir  = ".parbench"

	// EnvPrefix prefixes every environment override, e.g. PARBENCH_EXPERIMENT_TRIALS
	EnvPrefix = "PARBENCH"
)

// Configuration keys
const (
	KeyStart   = "experiment.start"
	KeyEnd     = "experiment.end"
	KeyStep    = "experiment.step"
	KeyTrials  = "experiment.trials"
	KeyWorkers = "experiment.workers"
	KeyKernels = "experiment.kernels"

	KeyThreshold = "forkJoin.threshold"
	KeyScheduler = "forkJoin.scheduler"
	KeyPoolSize  = "forkJoin.poolSize"

	KeyMinSamplesPerThread = "sampling.minSamplesPerThread"
	KeyFallbackParallelism = "sampling.fallbackParallelism"
	KeyMaxThreads          = "sampling.maxThreads"
	KeySeed                = "sampling.seed"

	KeyFormat      = "output.format"
	KeyFile        = "output.file"
	KeyNoColor     = "output.noColor"
	KeyMetricsFile = "output.metricsFile"
)

// Default returns the stock configuration
func Default() *BenchConfig {
	return &BenchConfig{
		Experiment: ExperimentConfig{
			Start:   experiment.DefaultStart,
			End:     experiment.DefaultEnd,
			Step:    experiment.DefaultStep,
			Trials:  experiment.DefaultTrials,
			Workers: experiment.DefaultWorkers,
		},
		ForkJoin: ForkJoinConfig{
			Threshold: executor.DefaultThreshold,
			Scheduler: executor.SchedulerAsync,
			PoolSize:  runtime.NumCPU(),
		},
		Sampling: SamplingConfig{
			MinSamplesPerThread: executor.DefaultMinSamplesPerThread,
			FallbackParallelism: executor.DefaultFallbackParallelism,
		},
		Output: OutputConfig{
			Format: string(output.FormatTable),
		},
	}
}

// DefaultPath returns ~/.parbench.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigName+".yaml"), nil
}

// Manager handles parbench configuration
type Manager struct {
	configPath string
	config     *BenchConfig
	viper      *viper.Viper
}

// NewManager creates a new configuration manager.
// An empty configPath searches ~/.parbench/ and then ~ for .parbench.yaml.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     Default(),
	}
}

// BindFlag makes a command-line flag override key
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind to %q", key)
	}
	return m.viper.BindPFlag(key, flag)
}

// Load reads the configuration file, environment and bound flags.
// A missing file is not an error; defaults apply.
func (m *Manager) Load() (*BenchConfig, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Check ~/.parbench/.parbench.yaml, then ~/.parbench.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	// Every key needs a default for environment overrides to reach Unmarshal
	for key, value := range settings(Default()) {
		m.viper.SetDefault(key, value)
	}

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults")
	}

	cfg := &BenchConfig{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	m.config = cfg
	m.applyDefaults()

	return m.config, nil
}

// Save writes the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		m.configPath = path
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	for key, value := range settings(m.config) {
		m.viper.Set(key, value)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *BenchConfig {
	return m.config
}

// SetConfig replaces the current configuration
func (m *Manager) SetConfig(cfg *BenchConfig) {
	if cfg != nil {
		m.config = cfg
	}
}

// Path returns the file the configuration came from, if any
func (m *Manager) Path() string {
	if used := m.viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used
		}
	}
	return ""
}

// applyDefaults fills settings whose zero value is meaningless
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}
	def := Default()

	if m.config.ForkJoin.Scheduler == "" {
		m.config.ForkJoin.Scheduler = def.ForkJoin.Scheduler
	}
	if m.config.Sampling.MinSamplesPerThread == 0 {
		m.config.Sampling.MinSamplesPerThread = def.Sampling.MinSamplesPerThread
	}
	if m.config.Sampling.FallbackParallelism == 0 {
		m.config.Sampling.FallbackParallelism = def.Sampling.FallbackParallelism
	}
	if m.config.Output.Format == "" {
		m.config.Output.Format = def.Output.Format
	}
	m.config.ForkJoin.Scheduler = strings.ToLower(m.config.ForkJoin.Scheduler)
	m.config.Output.Format = strings.ToLower(m.config.Output.Format)
}

// Settings flattens the configuration into its dotted keys
func (c *BenchConfig) Settings() map[string]interface{} {
	return settings(c)
}

// settings flattens cfg into viper keys
func settings(cfg *BenchConfig) map[string]interface{} {
	return map[string]interface{}{
		KeyStart:   cfg.Experiment.Start,
		KeyEnd:     cfg.Experiment.End,
		KeyStep:    cfg.Experiment.Step,
		KeyTrials:  cfg.Experiment.Trials,
		KeyWorkers: cfg.Experiment.Workers,
		KeyKernels: cfg.Experiment.Kernels,

		KeyThreshold: cfg.ForkJoin.Threshold,
		KeyScheduler: cfg.ForkJoin.Scheduler,
		KeyPoolSize:  cfg.ForkJoin.PoolSize,

		KeyMinSamplesPerThread: cfg.Sampling.MinSamplesPerThread,
		KeyFallbackParallelism: cfg.Sampling.FallbackParallelism,
		KeyMaxThreads:          cfg.Sampling.MaxThreads,
		KeySeed:                cfg.Sampling.Seed,

		KeyFormat:      cfg.Output.Format,
		KeyFile:        cfg.Output.File,
		KeyNoColor:     cfg.Output.NoColor,
		KeyMetricsFile: cfg.Output.MetricsFile,
	}
}

// Validate checks every section of the configuration
func (c *BenchConfig) Validate() error {
	if err := c.ExperimentConfig().Validate(); err != nil {
		return err
	}

	if c.ForkJoin.Threshold < 0 {
		return util.NewValidationError(KeyThreshold, c.ForkJoin.Threshold, "must not be negative")
	}
	switch c.ForkJoin.Scheduler {
	case executor.SchedulerAsync, executor.SchedulerDeferred, executor.SchedulerPooled:
	default:
		return util.NewValidationError(KeyScheduler, c.ForkJoin.Scheduler, "must be one of: async, deferred, pooled")
	}
	if c.ForkJoin.PoolSize < 0 {
		return util.NewValidationError(KeyPoolSize, c.ForkJoin.PoolSize, "must not be negative")
	}

	if c.Sampling.MinSamplesPerThread < 1 {
		return util.NewValidationError(KeyMinSamplesPerThread, c.Sampling.MinSamplesPerThread, "must be at least 1")
	}
	if c.Sampling.FallbackParallelism < 1 {
		return util.NewValidationError(KeyFallbackParallelism, c.Sampling.FallbackParallelism, "must be at least 1")
	}
	if c.Sampling.MaxThreads < 0 {
		return util.NewValidationError(KeyMaxThreads, c.Sampling.MaxThreads, "must not be negative")
	}

	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	return nil
}

// ExperimentConfig converts the experiment section into a sweep
func (c *BenchConfig) ExperimentConfig() experiment.Config {
	return experiment.Config{
		Start:   c.Experiment.Start,
		End:     c.Experiment.End,
		Step:    c.Experiment.Step,
		Trials:  c.Experiment.Trials,
		Workers: c.Experiment.Workers,
		Kernels: c.Experiment.Kernels,
	}
}

// PartitionConfig converts the sampling section into a partition policy
func (c *BenchConfig) PartitionConfig() executor.PartitionConfig {
	return executor.PartitionConfig{
		MinPerThread:        c.Sampling.MinSamplesPerThread,
		FallbackParallelism: c.Sampling.FallbackParallelism,
		MaxThreads:          c.Sampling.MaxThreads,
	}
}

// SamplerConfig converts the sampling section into a sampler policy
func (c *BenchConfig) SamplerConfig() executor.SamplerConfig {
	return executor.SamplerConfig{
		PartitionConfig: c.PartitionConfig(),
		Seed:            c.Sampling.Seed,
	}
}

// NewForkJoin builds the fork/join executor described by the forkJoin section
func (c *BenchConfig) NewForkJoin(logger *slog.Logger, recorder executor.Recorder) (*executor.ForkJoin, error) {
	scheduler, err := executor.NewScheduler(c.ForkJoin.Scheduler, c.ForkJoin.PoolSize)
	if err != nil {
		return nil, err
	}
	return executor.NewForkJoin(c.ForkJoin.Threshold,
		executor.WithScheduler(scheduler),
		executor.WithForkJoinLogger(logger),
		executor.WithForkJoinRecorder(recorder)), nil
}

// NewEnv builds the executors every workload kernel runs on
func (c *BenchConfig) NewEnv(logger *slog.Logger, recorder executor.Recorder) (*workload.Env, error) {
	fj, err := c.NewForkJoin(logger, recorder)
	if err != nil {
		return nil, err
	}
	return &workload.Env{
		ForkJoin:    fj,
		Partitioner: executor.NewPartitioner(c.PartitionConfig(), logger, recorder),
		Sampler:     executor.NewSampler(c.SamplerConfig(), logger, recorder),
		Seed:        c.Sampling.Seed,
	}, nil
}
