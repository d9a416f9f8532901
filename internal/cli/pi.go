package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/internal/timer"
	"github.com/aryankumar/parbench/internal/util"
	"github.com/aryankumar/parbench/internal/workload"
	"github.com/spf13/cobra"
)

// DefaultPiSamples is the sample count of the pi command
const DefaultPiSamples = 1_000_000

// estimate is one timed pi estimate
type estimate struct {
	Label   string
	Value   float64
	Seconds float64
}

func newPiCmd(a *app) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "pi",
		Short: "Estimate pi sequentially and with the sampling executor",
		Long: `Estimate pi by sampling random points in the square [-1, 1) x [-1, 1)
and counting those inside the unit circle, once on a single thread and once
spread across threads by the partitioned sampling executor.`,
		Example: `  # One million samples
  parbench pi

  # Reproducible estimate with ten million samples
  parbench pi -n 10000000 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPi(cmd, samples)
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", DefaultPiSamples, "number of random points")

	return cmd
}

func (a *app) runPi(cmd *cobra.Command, samples int) error {
	if samples < 0 {
		return fmt.Errorf("%w: %d", util.ErrInvalidSampleCount, samples)
	}

	env, err := a.cfg.NewEnv(a.logger, nil)
	if err != nil {
		return err
	}
	kernels, err := workload.NewRegistry().Lookup(workload.KernelPi)
	if err != nil {
		return err
	}

	estimates := make([]estimate, 0, len(kernels))
	for _, k := range kernels {
		in := k.Prepare(samples)

		t := timer.Start("starting "+k.Label+"...", a.logger)
		value, err := k.Run(env, in)
		t.Stop()
		if err != nil {
			return fmt.Errorf("%s: %w", k.Label, err)
		}

		estimates = append(estimates, estimate{Label: k.Label, Value: value, Seconds: t.Seconds()})
	}

	w, closeOut, err := a.writer(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if a.cfg.Output.Format == string(output.FormatPlain) {
		return writePlainEstimates(w, estimates)
	}
	return a.formatter().Format(w, estimateRows(estimates))
}

// estimateRows turns estimates into rows with a speedup over the first one
func estimateRows(estimates []estimate) []map[string]interface{} {
	rows := make([]map[string]interface{}, len(estimates))
	for i, e := range estimates {
		speedup := 0.0
		if e.Seconds > 0 {
			speedup = estimates[0].Seconds / e.Seconds
		}
		rows[i] = map[string]interface{}{
			"kernel":   e.Label,
			"estimate": e.Value,
			"error":    math.Abs(e.Value - math.Pi),
			"seconds":  e.Seconds,
			"speedup":  fmt.Sprintf("%.2fx", speedup),
		}
	}
	return rows
}

func writePlainEstimates(w io.Writer, estimates []estimate) error {
	for _, e := range estimates {
		if _, err := fmt.Fprintf(w, "%s: %g (%gs)\n", e.Label, e.Value, e.Seconds); err != nil {
			return err
		}
	}
	return nil
}
