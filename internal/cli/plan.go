package cli

import (
	"fmt"

	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/internal/util"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show how a sampling workload would be partitioned",
		Long: `Show the thread count and block sizes the partitioned sampling executor
would use for a workload, without running it.

The thread count is the smaller of the available hardware parallelism and
samples / --min-per-thread (at least 1). The last block absorbs the remainder.`,
		Example: `  # Partition of one million samples on this machine
  parbench plan --samples 1000000

  # As YAML
  parbench plan -n 1003 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd, samples)
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", DefaultPiSamples, "workload size to partition")

	return cmd
}

func (a *app) runPlan(cmd *cobra.Command, samples int) error {
	if samples < 0 {
		return fmt.Errorf("%w: %d", util.ErrInvalidSampleCount, samples)
	}

	plan := executor.NewSampler(a.cfg.SamplerConfig(), a.logger, nil).Plan(samples)

	w, closeOut, err := a.writer(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	switch a.cfg.Output.Format {
	case string(output.FormatJSON), string(output.FormatYAML):
		return a.formatter().Format(w, plan)
	default:
		return a.formatter().Format(w, planRow(plan))
	}
}

// planRow summarises a partition as one key/value table
func planRow(p executor.Partition) map[string]interface{} {
	row := map[string]interface{}{
		"total":                  p.Total,
		"available parallelism":  p.AvailableParallelism,
		"max threads (workload)": p.MaxThreadsByWorkload,
		"threads":                p.NumThreads,
		"spawned":                p.Spawned(),
		"block size":             p.BlockSize,
	}
	if n := len(p.Blocks); n > 0 {
		row["last block"] = p.Blocks[n-1]
	}
	return row
}
