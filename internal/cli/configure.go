package cli

import (
	"fmt"
	"os"

	"github.com/aryankumar/parbench/internal/config"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/spf13/cobra"
)

// newConfigCmd creates the config parent command
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the parbench configuration",
		Long: `Inspect the effective configuration or write it to a file.

Settings are resolved from defaults, the config file, PARBENCH_* environment
variables and command-line flags, in increasing order of precedence.`,
	}

	cmd.AddCommand(newConfigViewCmd(a))
	cmd.AddCommand(newConfigInitCmd(a))

	return cmd
}

func newConfigViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Example: `  parbench config view
  PARBENCH_EXPERIMENT_TRIALS=5 parbench config view -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeOut, err := a.writer(cmd)
			if err != nil {
				return err
			}
			defer closeOut()

			switch a.cfg.Output.Format {
			case string(output.FormatJSON), string(output.FormatYAML):
				return a.formatter().Format(w, a.cfg)
			default:
				return a.formatter().Format(w, a.cfg.Settings())
			}
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `Write the effective configuration to --config, or to $HOME/.parbench.yaml
when no config file is given. An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			manager := config.NewManager(path)
			manager.SetConfig(a.cfg)
			if err := manager.Save(); err != nil {
				return err
			}

			a.logger.Info("configuration written", "file", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
