package cli

import (
	"fmt"

	"github.com/aryankumar/parbench/internal/output"
	"github.com/aryankumar/parbench/pkg/version"
	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for parbench",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

// runVersion prints the human-readable form unless -o asks for a format
func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	name, _ := cmd.Flags().GetString("output")
	if name == "" {
		_, err := fmt.Fprintln(w, info.String())
		return err
	}

	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(format, output.WithNoColor(noColor))

	switch format {
	case output.FormatTable:
		return formatter.Format(w, map[string]interface{}{
			"Version":    info.Version,
			"Commit":     info.Commit,
			"Build Time": info.BuildTime,
			"Go Version": info.GoVersion,
			"Platform":   info.Platform,
		})
	case output.FormatPlain:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	default:
		return formatter.Format(w, info)
	}
}
