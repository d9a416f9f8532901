package experiment

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryankumar/parbench/internal/stats"
)

// CountSuccessful returns the number of results without an error
func CountSuccessful(results []Result) int {
	count := 0
	for _, r := range results {
		if r.Error == nil {
			count++
		}
	}
	return count
}

// CountFailed returns the number of results with an error
func CountFailed(results []Result) int {
	return len(results) - CountSuccessful(results)
}

// FilterSuccessful returns only the successful results
func FilterSuccessful(results []Result) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterFailed returns only the failed results
func FilterFailed(results []Result) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Seconds returns the durations of results in seconds
func Seconds(results []Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Duration.Seconds()
	}
	return out
}

// AverageDuration calculates the average duration of results
func AverageDuration(results []Result) time.Duration {
	if len(results) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range results {
		total += r.Duration
	}

	return total / time.Duration(len(results))
}

// MaxDuration returns the longest duration among results
func MaxDuration(results []Result) time.Duration {
	_, hi := stats.MinMax(durations(results))
	return hi
}

// MinDuration returns the shortest duration among results
func MinDuration(results []Result) time.Duration {
	lo, _ := stats.MinMax(durations(results))
	return lo
}

// Summary describes a batch of trial results
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
	StdDev      time.Duration
}

// Summarize creates a summary of the results.
// Timing figures only cover successful trials.
func Summarize(results []Result) Summary {
	ok := FilterSuccessful(results)
	return Summary{
		Total:       len(results),
		Successful:  len(ok),
		Failed:      len(results) - len(ok),
		AvgDuration: AverageDuration(ok),
		MaxDuration: MaxDuration(ok),
		MinDuration: MinDuration(ok),
		StdDev:      time.Duration(stats.StdDev(durations(ok))),
	}
}

// String returns a human-readable representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))

	if s.Successful > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Microsecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Microsecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Microsecond)))
	}

	return sb.String()
}

// HasErrors reports whether any result failed
func HasErrors(results []Result) bool {
	for _, r := range results {
		if r.Error != nil {
			return true
		}
	}
	return false
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate(results []Result) float64 {
	if len(results) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(results)) / float64(len(results)) * 100.0
}

func durations(results []Result) []time.Duration {
	out := make([]time.Duration, len(results))
	for i, r := range results {
		out[i] = r.Duration
	}
	return out
}
