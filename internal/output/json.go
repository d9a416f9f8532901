package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/parbench/internal/experiment"
)

// JSONFormatter formats output as indented JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatReport outputs the report as JSON, with speedups
func (f *JSONFormatter) FormatReport(w io.Writer, report *experiment.Report) error {
	if report == nil {
		return f.Format(w, nil)
	}
	return f.Format(w, newReportView(report))
}
