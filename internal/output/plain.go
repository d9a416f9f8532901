package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/aryankumar/parbench/internal/experiment"
)

// PlainFormatter writes each series as
//
//	<label>:
//	<seconds> <seconds> ...
//
// followed by a blank line. Values are space-terminated.
type PlainFormatter struct {
	options *Options
}

// NewPlainFormatter creates a new plain-text formatter
func NewPlainFormatter(opts *Options) *PlainFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &PlainFormatter{
		options: opts,
	}
}

// Format prints data with its default formatting
func (f *PlainFormatter) Format(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintln(w, data)
	return err
}

// FormatReport writes the averaged seconds of every series
func (f *PlainFormatter) FormatReport(w io.Writer, report *experiment.Report) error {
	if report == nil {
		return nil
	}

	bw := bufio.NewWriter(w)
	for _, s := range report.Series {
		fmt.Fprintf(bw, "%s:\n", s.Label)
		for _, p := range s.Points {
			bw.WriteString(formatSeconds(p.Seconds))
			bw.WriteByte(' ')
		}
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}
