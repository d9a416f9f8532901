package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aryankumar/parbench/internal/config"
	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/pkg/version"
	"github.com/spf13/cobra"
)

// flagKeys maps command-line flags to the configuration keys they override
var flagKeys = map[string]string{
	"output":               config.KeyFormat,
	"output-file":          config.KeyFile,
	"no-color":             config.KeyNoColor,
	"metrics-file":         config.KeyMetricsFile,
	"threshold":            config.KeyThreshold,
	"scheduler":            config.KeyScheduler,
	"pool-size":            config.KeyPoolSize,
	"min-per-thread":       config.KeyMinSamplesPerThread,
	"fallback-parallelism": config.KeyFallbackParallelism,
	"max-threads":          config.KeyMaxThreads,
	"seed":                 config.KeySeed,
	"start":                config.KeyStart,
	"end":                  config.KeyEnd,
	"step":                 config.KeyStep,
	"trials":               config.KeyTrials,
	"workers":              config.KeyWorkers,
	"kernels":              config.KeyKernels,
}

// app is the state shared by every command of one invocation
type app struct {
	cfgFile string
	manager *config.Manager
	cfg     *config.BenchConfig
	logger  *slog.Logger
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}

	rootCmd := &cobra.Command{
		Use:   "parbench",
		Short: "parbench - parallel executor benchmarks",
		Long: `parbench measures parallel execution strategies against their
sequential baselines.

It ships a recursive fork/join executor and a partitioned sampling executor,
runs element-wise, scan, reduction and Monte-Carlo kernels on both, and
reports averaged timings over a sweep of workload sizes.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.parbench.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("output", "o", "", "output format (table, json, yaml, plain)")
	flags.String("output-file", "", "write output to a file instead of stdout")
	flags.IntP("threshold", "t", executor.DefaultThreshold, "largest range the fork/join executor processes without splitting")
	flags.String("scheduler", executor.SchedulerAsync, "fork/join scheduling policy (async, deferred, pooled)")
	flags.Int("pool-size", 0, "pooled scheduler size (0 means one per CPU)")
	flags.Int("min-per-thread", executor.DefaultMinSamplesPerThread, "smallest workload worth a thread of its own")
	flags.Int("fallback-parallelism", executor.DefaultFallbackParallelism, "parallelism assumed when the platform reports none")
	flags.Int("max-threads", 0, "cap on live spawned threads (0 means unlimited)")
	flags.Uint64("seed", 0, "random seed for sampling kernels (0 picks a fresh one)")
	registerValueCompletions(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newPiCmd(a))
	rootCmd.AddCommand(newForEachCmd(a))
	rootCmd.AddCommand(newPlanCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// init loads configuration and sets up logging for cmd
func (a *app) init(cmd *cobra.Command) error {
	a.manager = config.NewManager(a.cfgFile)

	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := a.manager.BindFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	cfg, err := a.manager.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	verbose, _ := cmd.Flags().GetBool("verbose")
	a.logger = setupLogging(cmd.ErrOrStderr(), verbose, cfg.Output.NoColor)

	if path := a.manager.Path(); path != "" {
		a.logger.Debug("loaded configuration", "file", path)
	}
	return nil
}

// formatter builds the formatter selected by the output settings
func (a *app) formatter(opts ...output.Option) output.Formatter {
	format, _ := output.ParseFormat(a.cfg.Output.Format)
	opts = append([]output.Option{output.WithNoColor(a.cfg.Output.NoColor)}, opts...)
	return output.NewFormatter(format, opts...)
}

// writer returns the output destination and a function closing it
func (a *app) writer(cmd *cobra.Command) (io.Writer, func() error, error) {
	if a.cfg.Output.File == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(a.cfg.Output.File)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	a.logger.Debug("writing output", "file", a.cfg.Output.File)
	return f, f.Close, nil
}

// setupLogging configures structured logging with slog
func setupLogging(w io.Writer, verbose, noColor bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.Debug("verbose logging enabled")
	return logger
}
