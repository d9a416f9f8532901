package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"sync"

	"github.com/aryankumar/parbench/internal/timer"
	"github.com/spf13/cobra"
)

// DefaultForEachCount is the number of values the foreach command prints
const DefaultForEachCount = 100

func newForEachCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foreach [count]",
		Short: "Print 1..count through the fork/join executor",
		Long: `Print the integers 1 to count, one per line, by traversing the range with
the recursive fork/join executor.

Ranges longer than --threshold are split in half and the halves run
concurrently, so lines usually appear out of order. Every value is printed
exactly once.`,
		Example: `  # Print 1..100 with the default threshold of 25
  parbench foreach

  # No splitting at all: values appear in order
  parbench foreach 1000 --threshold 1000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := DefaultForEachCount
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("invalid count %q: must be a non-negative integer", args[0])
				}
				count = n
			}
			return a.runForEach(cmd, count)
		},
	}

	return cmd
}

func (a *app) runForEach(cmd *cobra.Command, count int) error {
	fj, err := a.cfg.NewForkJoin(a.logger, nil)
	if err != nil {
		return err
	}

	w, closeOut, err := a.writer(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	// Lines are written whole so concurrent halves never interleave mid-line
	var mu sync.Mutex
	buf := bufio.NewWriter(w)

	elapsed, err := timer.Measure("starting parallel print...", a.logger, func() error {
		return fj.Traverse(1, count+1, func(i int) error {
			mu.Lock()
			defer mu.Unlock()
			_, err := fmt.Fprintln(buf, i)
			return err
		})
	})
	if err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}

	a.logger.Debug("traversal completed",
		"count", count,
		"threshold", fj.Threshold(),
		"elapsed", elapsed)
	return nil
}
