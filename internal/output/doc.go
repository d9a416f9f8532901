// Package output renders parbench results.
//
// An experiment report can be written as a table, JSON, YAML or plain text.
// Every format goes through the same Formatter interface.
//
// # Formats
//
// Table:
//   - Borderless, tab-separated rows, one per series and size
//   - Wide mode adds the standard deviation, the kernel value and the trial count
//   - A closing summary with failed trials and per-kernel speedups
//
// JSON and YAML:
//   - The full report, including per-point statistics and speedups
//
// Plain:
//   - One "<label>:" line per series followed by its averaged seconds,
//     space-separated, and a blank line. This is the layout of output.txt.
//
// # Basic Usage
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithWide(true))
//	formatter.FormatReport(os.Stdout, report)
//
// # Color Support
//
// Colors are enabled only for TTY writers and can be turned off with
// WithNoColor(true). Series labels are cyan, timings blue, failures red and
// speedups green above 1x or yellow below it.
package output
