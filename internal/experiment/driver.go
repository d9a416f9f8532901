package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryankumar/parbench/internal/stats"
	"github.com/aryankumar/parbench/internal/timer"
	"github.com/aryankumar/parbench/internal/util"
	"github.com/aryankumar/parbench/internal/workload"
)

// Defaults of the size sweep
const (
	DefaultStart   = 100_000
	DefaultEnd     = 1_000_000
	DefaultStep    = 10_000
	DefaultTrials  = 20
	DefaultWorkers = 1
)

// Config describes a size sweep
type Config struct {
	// Sizes run from Start up to, but excluding, End in increments of Step
	Start int
	End   int
	Step  int

	// Trials is the number of timed repetitions averaged per size
	Trials int

	// Workers is the number of trials run at once
	Workers int

	// Kernels selects kernels by name; empty runs all of them
	Kernels []string
}

// DefaultConfig returns the stock sweep
func DefaultConfig() Config {
	return Config{
		Start:   DefaultStart,
		End:     DefaultEnd,
		Step:    DefaultStep,
		Trials:  DefaultTrials,
		Workers: DefaultWorkers,
	}
}

// Validate checks the sweep bounds
func (c Config) Validate() error {
	if c.Start < 0 {
		return util.NewValidationError("experiment.start", c.Start, "must not be negative")
	}
	if c.End < c.Start {
		return util.NewValidationError("experiment.end", c.End, "must not be less than experiment.start")
	}
	if c.Step <= 0 {
		return util.NewValidationError("experiment.step", c.Step, "must be positive")
	}
	if c.Trials <= 0 {
		return util.NewValidationError("experiment.trials", c.Trials, "must be positive")
	}
	if c.Workers < 0 {
		return util.NewValidationError("experiment.workers", c.Workers, "must not be negative")
	}
	return nil
}

// Sizes lists the workload sizes of the sweep
func (c Config) Sizes() []int {
	if c.Step <= 0 {
		return nil
	}
	var sizes []int
	for n := c.Start; n < c.End; n += c.Step {
		sizes = append(sizes, n)
	}
	return sizes
}

// Observer receives every finished trial
type Observer interface {
	ObserveTrial(kernel, variant string, d time.Duration, err error)
}

// Point is the aggregate of all trials of one kernel at one size
type Point struct {
	Size     int     `json:"size" yaml:"size"`
	Seconds  float64 `json:"seconds" yaml:"seconds"`
	StdDev   float64 `json:"stdDev" yaml:"stdDev"`
	Value    float64 `json:"value" yaml:"value"`
	Trials   int     `json:"trials" yaml:"trials"`
	Failures int     `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Series is the sweep of one kernel variant
type Series struct {
	Kernel  string  `json:"kernel" yaml:"kernel"`
	Variant string  `json:"variant" yaml:"variant"`
	Label   string  `json:"label" yaml:"label"`
	Points  []Point `json:"points" yaml:"points"`
}

// Seconds returns the averaged durations of the series in size order
func (s Series) Seconds() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Seconds
	}
	return out
}

// Report is the outcome of a sweep
type Report struct {
	Sizes    []int         `json:"sizes" yaml:"sizes"`
	Trials   int           `json:"trials" yaml:"trials"`
	Series   []Series      `json:"series" yaml:"series"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Driver runs a sweep of kernels over sizes
type Driver struct {
	cfg      Config
	env      *workload.Env
	registry *workload.Registry
	logger   *slog.Logger
	observer Observer
	progress func(completed, total int)
}

// Option configures a Driver
type Option func(*Driver)

// WithObserver sets the trial observer
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// WithProgress sets a callback run after every trial with sweep-wide counts
func WithProgress(fn func(completed, total int)) Option {
	return func(d *Driver) { d.progress = fn }
}

// WithRegistry replaces the built-in kernel registry
func WithRegistry(r *workload.Registry) Option {
	return func(d *Driver) {
		if r != nil {
			d.registry = r
		}
	}
}

// NewDriver creates a driver; it validates cfg
func NewDriver(cfg Config, env *workload.Env, logger *slog.Logger, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if env == nil {
		env = workload.DefaultEnv(logger)
	}

	d := &Driver{
		cfg:      cfg,
		env:      env,
		registry: workload.NewRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run performs the sweep.
//
// For every selected kernel variant and every size, Trials timings are taken
// and averaged into one Point. Failed trials are excluded from the average and
// reported together in the returned error, alongside the full report. When
// ctx is cancelled the sweep stops between trials and the report holds the
// points finished so far.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	kernels, err := d.registry.Resolve(d.cfg.Kernels)
	if err != nil {
		return nil, err
	}

	sizes := d.cfg.Sizes()
	report := &Report{
		Sizes:   sizes,
		Trials:  d.cfg.Trials,
		Started: time.Now(),
	}
	defer func() { report.Duration = time.Since(report.Started) }()

	total := len(kernels) * len(sizes) * d.cfg.Trials
	completed := 0
	failures := &util.MultiError{}

	d.logger.Info("experiment started",
		"kernels", len(kernels),
		"sizes", len(sizes),
		"trials", d.cfg.Trials,
		"workers", d.cfg.Workers)

	pool := NewPool(d.cfg.Workers, d.logger)
	for _, k := range kernels {
		series := Series{Kernel: k.Name, Variant: string(k.Variant), Label: k.Label}

		for _, size := range sizes {
			for i := 0; i < d.cfg.Trials; i++ {
				if err := pool.Submit(d.trial(k, size, i)); err != nil {
					return report, err
				}
			}

			base := completed
			results := pool.ExecuteWithProgress(ctx, func(done, _ int) {
				if d.progress != nil {
					d.progress(base+done, total)
				}
			})
			completed += len(results)

			if ctx.Err() != nil {
				report.Series = append(report.Series, series)
				d.logger.Warn("experiment cancelled", "kernel", k.ID(), "size", size)
				return report, fmt.Errorf("%w: %w", util.ErrCancelled, ctx.Err())
			}

			if d.observer != nil {
				for _, r := range results {
					d.observer.ObserveTrial(r.Kernel, r.Variant, r.Duration, r.Error)
				}
			}
			if HasErrors(results) {
				d.logger.Warn("trials failed",
					"kernel", k.ID(),
					"size", size,
					"success_rate", SuccessRate(results))
				for _, r := range FilterFailed(results) {
					failures.Add(util.AddContext(
						util.AddContext(r.Error, "kernel", k.ID()), "size", size))
				}
			}
			d.logger.Debug("size completed", "kernel", k.ID(), "size", size, "summary", Summarize(results).String())
			series.Points = append(series.Points, aggregate(size, results))
		}

		d.logger.Debug("series completed", "kernel", k.ID(), "points", len(series.Points))
		report.Series = append(report.Series, series)
	}

	d.logger.Info("experiment completed",
		"series", len(report.Series),
		"failed_trials", len(failures.Errors),
		"duration", time.Since(report.Started))

	return report, failures.ErrorOrNil()
}

// trial binds one repetition of k at size to the driver's environment
func (d *Driver) trial(k workload.Kernel, size, index int) Trial {
	return Trial{
		Kernel:  k.Name,
		Variant: string(k.Variant),
		Size:    size,
		Index:   index,
		Execute: func(ctx context.Context) (float64, time.Duration, error) {
			in := k.Prepare(size)

			var value float64
			elapsed, err := timer.Measure("starting "+k.Label+"...", d.logger, func() error {
				var runErr error
				value, runErr = k.Run(d.env, in)
				return runErr
			})
			return value, elapsed, err
		},
	}
}

// aggregate averages the successful trials of one size
func aggregate(size int, results []Result) Point {
	ok := FilterSuccessful(results)
	secs := Seconds(ok)

	values := make([]float64, len(ok))
	for i, r := range ok {
		values[i] = r.Value
	}

	return Point{
		Size:     size,
		Seconds:  stats.Mean(secs),
		StdDev:   stats.StdDev(secs),
		Value:    stats.Mean(values),
		Trials:   len(ok),
		Failures: len(results) - len(ok),
	}
}
