package cli

import (
	"fmt"

	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/internal/workload"
	"github.com/spf13/cobra"
)

// newCompletionCmd creates the completion command for generating shell completions
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for parbench.

Besides subcommands and flag names, the scripts complete the values of
--kernels (for_each, scan, reduce, pi),
--scheduler (async, deferred, pooled) and --output (table, json, yaml, plain).

Bash:
  $ source <(parbench completion bash)

  # To load completions for each session, execute once:
  $ parbench completion bash > /etc/bash_completion.d/parbench

Zsh:
  # Completion must be enabled once with:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ parbench completion zsh > "${fpath[1]}/_parbench"

Fish:
  $ parbench completion fish > ~/.config/fish/completions/parbench.fish

PowerShell:
  PS> parbench completion powershell | Out-String | Invoke-Expression

Completion needs no configuration file; a broken one does not affect it.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion works even when the configuration is broken
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd, args[0])
		},
	}

	return cmd
}

// runCompletion writes the completion script for shell to the command output
func runCompletion(cmd *cobra.Command, shell string) error {
	w := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return cmd.Root().GenBashCompletion(w)
	case "zsh":
		return cmd.Root().GenZshCompletion(w)
	case "fish":
		return cmd.Root().GenFishCompletion(w, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell type %q", shell)
	}
}

// registerValueCompletions completes the enumerated flag values defined on cmd
func registerValueCompletions(cmd *cobra.Command) {
	values := map[string]func() []string{
		"kernels": func() []string { return workload.NewRegistry().Names() },
		"scheduler": func() []string {
			return []string{executor.SchedulerAsync, executor.SchedulerDeferred, executor.SchedulerPooled}
		},
		"output": func() []string {
			var names []string
			for _, f := range output.Formats() {
				names = append(names, string(f))
			}
			return names
		},
	}

	for name, list := range values {
		if cmd.Flag(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return list(), cobra.ShellCompDirectiveNoFileComp
		})
	}
}
