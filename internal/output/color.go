package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// Series colors series labels
	Series func(format string, a ...interface{}) string

	// Success colors success status
	Success func(format string, a ...interface{}) string

	// Error colors error messages
	Error func(format string, a ...interface{}) string

	// Warning colors warning messages
	Warning func(format string, a ...interface{}) string

	// Header colors table headers
	Header func(format string, a ...interface{}) string

	// Duration colors timings
	Duration func(format string, a ...interface{}) string

	// Speedup colors speedup ratios
	Speedup func(format string, a ...interface{}) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a color scheme for w.
// Colors are disabled for non-TTY writers or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		plain := color.New()
		plain.DisableColor()
		return &ColorScheme{
			Series:   plain.Sprintf,
			Success:  plain.Sprintf,
			Error:    plain.Sprintf,
			Warning:  plain.Sprintf,
			Header:   plain.Sprintf,
			Duration: plain.Sprintf,
			Speedup:  plain.Sprintf,
			Disabled: true,
		}
	}

	return &ColorScheme{
		Series:   color.New(color.FgCyan, color.Bold).Sprintf,
		Success:  color.New(color.FgGreen).Sprintf,
		Error:    color.New(color.FgRed, color.Bold).Sprintf,
		Warning:  color.New(color.FgYellow).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
		Speedup:  color.New(color.FgMagenta).Sprintf,
		Disabled: false,
	}
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor picks Error for failures and Success otherwise
func (cs *ColorScheme) StatusColor(failed bool) func(format string, a ...interface{}) string {
	if failed {
		return cs.Error
	}
	return cs.Success
}

// SpeedupColor highlights ratios above 1 as a success and below 1 as a warning
func (cs *ColorScheme) SpeedupColor(ratio float64) func(format string, a ...interface{}) string {
	switch {
	case ratio > 1:
		return cs.Success
	case ratio > 0 && ratio < 1:
		return cs.Warning
	default:
		return cs.Speedup
	}
}
