package output

import (
	"io"
	"strings"

	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/aryankumar/parbench/internal/util"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs a borderless table with a speedup summary
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
	// FormatPlain outputs one "label:" line and one line of seconds per series
	FormatPlain Format = "plain"
)

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatYAML, FormatPlain}
}

// ParseFormat validates a format name; the empty name means table
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatTable, nil
	}
	f := Format(strings.ToLower(name))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", util.NewValidationError("output.format", name, "must be one of: table, json, yaml, plain")
}

// Formatter renders command output
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatReport outputs the series of an experiment
	FormatReport(w io.Writer, report *experiment.Report) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide adds deviation, value and trial columns to tables
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a formatter for format; unknown formats get a table
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatPlain:
		return NewPlainFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// reportView is the serialized shape of a report
type reportView struct {
	Sizes    []int               `json:"sizes" yaml:"sizes"`
	Trials   int                 `json:"trials" yaml:"trials"`
	Started  string              `json:"started" yaml:"started"`
	Duration string              `json:"duration" yaml:"duration"`
	Series   []experiment.Series `json:"series" yaml:"series"`
	Speedups []Speedup           `json:"speedups,omitempty" yaml:"speedups,omitempty"`
}

func newReportView(r *experiment.Report) reportView {
	return reportView{
		Sizes:    r.Sizes,
		Trials:   r.Trials,
		Started:  r.Started.Format("2006-01-02T15:04:05Z07:00"),
		Duration: r.Duration.String(),
		Series:   r.Series,
		Speedups: Speedups(r),
	}
}
