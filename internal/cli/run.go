package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/aryankumar/parbench/internal/metrics"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/internal/util"
	"github.com/aryankumar/parbench/internal/workload"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// newRunCmd creates the run command
func newRunCmd(a *app) *cobra.Command {
	var (
		wide     bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark sweep",
		Long: `Run every selected kernel, sequential and parallel, over a sweep of
workload sizes and report the averaged time per size.

Sizes run from --start up to, but excluding, --end in increments of --step.
Each size is timed --trials times and averaged. Trials run one at a time
unless --workers says otherwise.`,
		Example: `  # Full default sweep of every kernel
  parbench run

  # Quick sweep of the pi and scan kernels
  parbench run --start 1000 --end 10000 --step 1000 --trials 5 -k pi,scan

  # Write the classic label/values text file
  parbench run -o plain --output-file output.txt

  # Export executor metrics for node_exporter
  parbench run --metrics-file parbench.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExperiment(cmd, wide, progress)
		},
	}

	cmd.Flags().Int("start", experiment.DefaultStart, "first workload size")
	cmd.Flags().Int("end", experiment.DefaultEnd, "end of the size sweep (exclusive)")
	cmd.Flags().Int("step", experiment.DefaultStep, "size increment")
	cmd.Flags().Int("trials", experiment.DefaultTrials, "timed repetitions averaged per size")
	cmd.Flags().Int("workers", experiment.DefaultWorkers, "trials run at once")
	cmd.Flags().StringSliceP("kernels", "k", nil,
		fmt.Sprintf("kernels to run (%v, empty means all)", workload.NewRegistry().Names()))
	cmd.Flags().String("metrics-file", "", "write executor metrics in Prometheus text format")
	cmd.Flags().BoolVar(&wide, "wide", false, "add deviation, value and trial columns")
	cmd.Flags().BoolVar(&progress, "progress", isatty.IsTerminal(os.Stderr.Fd()), "show sweep progress on stderr")
	registerValueCompletions(cmd)

	return cmd
}

func (a *app) runExperiment(cmd *cobra.Command, wide, progress bool) error {
	m := metrics.New()

	env, err := a.cfg.NewEnv(a.logger, m)
	if err != nil {
		return err
	}

	opts := []experiment.Option{experiment.WithObserver(m)}
	if progress {
		opts = append(opts, experiment.WithProgress(progressPrinter(cmd.ErrOrStderr())))
	}

	driver, err := experiment.NewDriver(a.cfg.ExperimentConfig(), env, a.logger, opts...)
	if err != nil {
		return err
	}

	report, runErr := driver.Run(cmd.Context())
	if progress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if report == nil {
		return runErr
	}

	w, closeOut, err := a.writer(cmd)
	if err != nil {
		return util.CombineErrors(runErr, err)
	}
	if err := a.formatter(output.WithWide(wide)).FormatReport(w, report); err != nil {
		closeOut()
		return util.CombineErrors(runErr, fmt.Errorf("failed to write report: %w", err))
	}
	if err := closeOut(); err != nil {
		return util.CombineErrors(runErr, fmt.Errorf("failed to close output: %w", err))
	}

	if path := a.cfg.Output.MetricsFile; path != "" {
		if err := m.WriteToTextfile(path); err != nil {
			return util.CombineErrors(runErr, err)
		}
		a.logger.Debug("metrics written", "file", path)
	}

	return runErr
}

// progressPrinter redraws a single progress line on w
func progressPrinter(w io.Writer) func(completed, total int) {
	var mu sync.Mutex
	return func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		pct := 0.0
		if total > 0 {
			pct = float64(completed) / float64(total) * 100
		}
		fmt.Fprintf(w, "\rprogress: %d/%d trials (%.0f%%)", completed, total, pct)
	}
}
