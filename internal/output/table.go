package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter formats output as a borderless, tab-separated table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReport outputs one row per series and size, then a summary
func (f *TableFormatter) FormatReport(w io.Writer, report *experiment.Report) error {
	if report == nil || len(report.Series) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"SERIES", "SIZE", "SECONDS"}
	if f.options.Wide {
		headers = append(headers, "STDDEV", "VALUE", "TRIALS")
	}
	headers = append(headers, "STATUS")

	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			colored := make([]string, len(headers))
			for i, h := range headers {
				colored[i] = colors.Header(h)
			}
			table.SetHeader(colored)
		}
	}

	for _, s := range report.Series {
		for _, p := range s.Points {
			table.Append(f.pointRow(s, p, colors))
		}
	}
	table.Render()

	f.printSummary(w, report, colors)
	return nil
}

func (f *TableFormatter) pointRow(s experiment.Series, p experiment.Point, colors *ColorScheme) []string {
	row := []string{
		colors.Series("%s", s.Label),
		strconv.Itoa(p.Size),
		colors.Duration("%s", formatSeconds(p.Seconds)),
	}

	if f.options.Wide {
		row = append(row,
			formatSeconds(p.StdDev),
			strconv.FormatFloat(p.Value, 'g', 6, 64),
			strconv.Itoa(p.Trials))
	}

	status := "OK"
	if p.Failures > 0 {
		status = fmt.Sprintf("%d failed", p.Failures)
	}
	return append(row, colors.StatusColor(p.Failures > 0)("%s", status))
}

// formatMap formats a map as a two-column table sorted by key
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table, columns sorted by key
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	var keys []string
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = fmt.Sprintf("%v", item[k])
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the trial counts and per-kernel speedups
func (f *TableFormatter) printSummary(w io.Writer, report *experiment.Report, colors *ColorScheme) {
	points, failures := 0, 0
	for _, s := range report.Series {
		for _, p := range s.Points {
			points++
			failures += p.Failures
		}
	}

	fmt.Fprintln(w, "")
	failedText := fmt.Sprintf("%d failed trials", failures)
	if failures > 0 {
		failedText = colors.Error("%s", failedText)
	}
	fmt.Fprintf(w, "Summary: %d series, %s, %s, %s\n",
		len(report.Series),
		colors.Success("%d points", points),
		failedText,
		colors.Duration("total=%s", report.Duration.Round(1000)))

	for _, sp := range Speedups(report) {
		fmt.Fprintf(w, "Speedup %s: %s\n", sp.Kernel, colors.SpeedupColor(sp.Ratio)("%.2fx", sp.Ratio))
	}
}

// formatSeconds renders seconds the way a C++ stream would, six significant digits
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'g', 6, 64)
}
