package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aryankumar/parbench/internal/util"
	"gopkg.in/yaml.v3"
)

var quickSweep = []string{"run", "--start", "100", "--end", "300", "--step", "100", "--trials", "2", "--progress=false"}

func TestRunCommand_JSON(t *testing.T) {
	args := append(append([]string{}, quickSweep...), "-k", "reduce", "-o", "json")
	stdout, _, err := executeCommand(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report struct {
		Sizes  []int `json:"sizes"`
		Trials int   `json:"trials"`
		Series []struct {
			Kernel  string `json:"kernel"`
			Variant string `json:"variant"`
			Label   string `json:"label"`
			Points  []struct {
				Size    int     `json:"size"`
				Seconds float64 `json:"seconds"`
				Trials  int     `json:"trials"`
			} `json:"points"`
		} `json:"series"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if len(report.Sizes) != 2 || report.Sizes[0] != 100 || report.Sizes[1] != 200 {
		t.Errorf("unexpected sizes %v", report.Sizes)
	}
	if report.Trials != 2 {
		t.Errorf("got trials %d, want 2", report.Trials)
	}
	if len(report.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(report.Series))
	}
	if report.Series[0].Label != "Sequential inner_product" || report.Series[1].Label != "Parallel transform_reduce" {
		t.Errorf("unexpected labels %q, %q", report.Series[0].Label, report.Series[1].Label)
	}
	for _, s := range report.Series {
		if len(s.Points) != 2 {
			t.Errorf("%s: got %d points, want 2", s.Label, len(s.Points))
		}
	}
}

func TestRunCommand_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.txt")
	args := append(append([]string{}, quickSweep...), "-k", "scan", "-o", "plain", "--output-file", path)

	stdout, _, err := executeCommand(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("report should go to the file, stdout got %q", stdout)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	blocks := strings.Split(strings.TrimSuffix(string(data), "\n\n"), "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 series blocks, got %d:\n%s", len(blocks), data)
	}
	wantLabels := []string{"Sequential partial_sum:", "Parallel inclusive_scan:"}
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) != 2 {
			t.Fatalf("block %d: expected label and values lines, got %q", i, block)
		}
		if lines[0] != wantLabels[i] {
			t.Errorf("block %d: got label %q, want %q", i, lines[0], wantLabels[i])
		}
		values := strings.Fields(lines[1])
		if len(values) != 2 {
			t.Errorf("block %d: expected 2 values, got %q", i, lines[1])
		}
		for _, v := range values {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				t.Errorf("block %d: value %q is not a number", i, v)
			}
		}
	}
}

func TestRunCommand_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parbench.prom")
	args := append(append([]string{}, quickSweep...), "-k", "for_each", "-o", "json", "--metrics-file", path)

	if _, _, err := executeCommand(t, args...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	for _, want := range []string{
		"parbench_forkjoin_tasks_submitted_total",
		"parbench_experiment_kernel_duration_seconds_count",
		`kernel="for_each"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}

// A cancelled sweep still reports, and a later write failure joins the cancellation
func TestRunCommand_CancelledWithMetricsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "parbench.prom")

	cmd := newRootCmd()
	args := append([]string{"--config", filepath.Join(t.TempDir(), "parbench.yaml")}, quickSweep...)
	cmd.SetArgs(append(args, "-k", "reduce", "-o", "json", "--metrics-file", path))
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cmd.ExecuteContext(ctx)
	if !util.IsCancelled(err) {
		t.Errorf("expected a cancellation error, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected the metrics write failure to be kept, got %v", err)
	}
	if !json.Valid(out.Bytes()) {
		t.Errorf("expected the partial report on stdout, got %q", out.String())
	}
}

func TestRunCommand_UnknownKernel(t *testing.T) {
	args := append(append([]string{}, quickSweep...), "-k", "fft")
	_, _, err := executeCommand(t, args...)
	if !errors.Is(err, util.ErrUnknownKernel) {
		t.Errorf("expected ErrUnknownKernel, got %v", err)
	}
}

func TestPiCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "pi", "-n", "200000", "--seed", "42", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rows []struct {
		Kernel   string  `json:"kernel"`
		Estimate float64 `json:"estimate"`
		Error    float64 `json:"error"`
		Speedup  string  `json:"speedup"`
	}
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Kernel != "Sequential pi" || rows[1].Kernel != "Parallel pi" {
		t.Errorf("unexpected kernels %q, %q", rows[0].Kernel, rows[1].Kernel)
	}
	for _, r := range rows {
		if math.Abs(r.Estimate-math.Pi) > 0.05 {
			t.Errorf("%s: estimate %v too far from pi", r.Kernel, r.Estimate)
		}
		if math.Abs(r.Error-math.Abs(r.Estimate-math.Pi)) > 1e-12 {
			t.Errorf("%s: error column %v does not match estimate", r.Kernel, r.Error)
		}
		if !strings.HasSuffix(r.Speedup, "x") {
			t.Errorf("%s: unexpected speedup %q", r.Kernel, r.Speedup)
		}
	}
}

func TestPiCommand_Plain(t *testing.T) {
	stdout, _, err := executeCommand(t, "pi", "-n", "0", "-o", "plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", stdout)
	}
	// Zero samples estimate 0
	if !strings.HasPrefix(lines[0], "Sequential pi: 0 (") || !strings.HasPrefix(lines[1], "Parallel pi: 0 (") {
		t.Errorf("unexpected plain output %q", stdout)
	}
}

func TestPiCommand_NegativeSamples(t *testing.T) {
	_, _, err := executeCommand(t, "pi", "-n=-5")
	if !errors.Is(err, util.ErrInvalidSampleCount) {
		t.Errorf("expected ErrInvalidSampleCount, got %v", err)
	}
}

func TestForEachCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		count     int
		wantOrder bool
	}{
		{name: "default count", args: []string{"foreach"}, count: 100},
		{name: "explicit count", args: []string{"foreach", "257"}, count: 257},
		{name: "deferred scheduler", args: []string{"foreach", "64", "--scheduler", "deferred"}, count: 64},
		{name: "threshold covers range", args: []string{"foreach", "40", "--threshold", "40"}, count: 40, wantOrder: true},
		{name: "empty range", args: []string{"foreach", "0"}, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			fields := strings.Fields(stdout)
			if len(fields) != tt.count {
				t.Fatalf("got %d values, want %d", len(fields), tt.count)
			}

			values := make([]int, len(fields))
			for i, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					t.Fatalf("line %q is not an integer", f)
				}
				values[i] = v
			}

			if tt.wantOrder && !sort.IntsAreSorted(values) {
				t.Errorf("expected values in order, got %v", values)
			}

			sort.Ints(values)
			for i, v := range values {
				if v != i+1 {
					t.Fatalf("value %d missing or duplicated (got %d at position %d)", i+1, v, i)
				}
			}
		})
	}
}

func TestForEachCommand_InvalidCount(t *testing.T) {
	for _, arg := range []string{"abc", "-3"} {
		t.Run(arg, func(t *testing.T) {
			_, _, err := executeCommand(t, "foreach", "--", arg)
			if err == nil || !strings.Contains(err.Error(), "invalid count") {
				t.Errorf("expected invalid count error, got %v", err)
			}
		})
	}
}

func TestPlanCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "plan", "-n", "1003", "--fallback-parallelism", "4", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var plan struct {
		Total                int   `json:"total"`
		MaxThreadsByWorkload int   `json:"maxThreadsByWorkload"`
		NumThreads           int   `json:"numThreads"`
		BlockSize            int   `json:"blockSize"`
		Blocks               []int `json:"blocks"`
	}
	if err := json.Unmarshal([]byte(stdout), &plan); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if plan.Total != 1003 {
		t.Errorf("got total %d, want 1003", plan.Total)
	}
	// ceil(1003 / 25)
	if plan.MaxThreadsByWorkload != 41 {
		t.Errorf("got workload cap %d, want 41", plan.MaxThreadsByWorkload)
	}
	if plan.NumThreads < 1 || plan.NumThreads != len(plan.Blocks) {
		t.Errorf("inconsistent plan: %d threads, %d blocks", plan.NumThreads, len(plan.Blocks))
	}
	sum := 0
	for _, b := range plan.Blocks {
		sum += b
	}
	if sum != 1003 {
		t.Errorf("blocks cover %d samples, want 1003", sum)
	}
}

func TestPlanCommand_Table(t *testing.T) {
	stdout, _, err := executeCommand(t, "plan", "-n", "10", "--no-color")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"KEY", "VALUE", "threads", "block size", "10"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigViewCommand(t *testing.T) {
	t.Setenv("PARBENCH_EXPERIMENT_TRIALS", "5")

	stdout, _, err := executeCommand(t, "config", "view", "-o", "yaml", "--threshold", "64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cfg struct {
		Experiment struct {
			Trials int `yaml:"trials"`
			Start  int `yaml:"start"`
		} `yaml:"experiment"`
		ForkJoin struct {
			Threshold int `yaml:"threshold"`
		} `yaml:"forkJoin"`
	}
	if err := yaml.Unmarshal([]byte(stdout), &cfg); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, stdout)
	}

	if cfg.Experiment.Trials != 5 {
		t.Errorf("environment override lost: trials %d", cfg.Experiment.Trials)
	}
	if cfg.Experiment.Start != 100000 {
		t.Errorf("default lost: start %d", cfg.Experiment.Start)
	}
	if cfg.ForkJoin.Threshold != 64 {
		t.Errorf("flag override lost: threshold %d", cfg.ForkJoin.Threshold)
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parbench.yaml")
	run := func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(append([]string{"--config", path}, args...))
		cmd.SetOut(&strings.Builder{})
		cmd.SetErr(&strings.Builder{})
		return cmd.Execute()
	}

	if err := run("config", "init", "--scheduler", "pooled"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	if err := run("config", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}
	if err := run("config", "init", "--force"); err != nil {
		t.Errorf("forced init failed: %v", err)
	}

	// The written file is picked up by later invocations
	var out strings.Builder
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path, "config", "view", "-o", "json"})
	cmd.SetOut(&out)
	cmd.SetErr(&strings.Builder{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if !strings.Contains(out.String(), `"scheduler": "pooled"`) {
		t.Errorf("saved scheduler not loaded back:\n%s", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "human readable", args: []string{"version"}, contains: "Version:"},
		{name: "json", args: []string{"version", "-o", "json"}, contains: `"goVersion"`},
		{name: "yaml", args: []string{"version", "-o", "yaml"}, contains: "goVersion:"},
		{name: "table", args: []string{"version", "-o", "table", "--no-color"}, contains: "Platform"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(stdout, tt.contains) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.contains, stdout)
			}
		})
	}
}
