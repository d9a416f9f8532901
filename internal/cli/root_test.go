package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aryankumar/parbench/internal/executor"
)

// executeCommand runs the root command with args against an isolated config file
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd()
	full := append([]string{"--config", filepath.Join(t.TempDir(), "parbench.yaml")}, args...)
	cmd.SetArgs(full)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	if cmd == nil {
		t.Fatal("expected root command, got nil")
	}

	if cmd.Use != "parbench" {
		t.Errorf("expected use 'parbench', got %q", cmd.Use)
	}

	expectedCommands := []string{
		"version",
		"completion",
		"run",
		"pi",
		"foreach",
		"plan",
		"config",
	}

	for _, cmdName := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--help"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	help := output.String()

	expectedStrings := []string{
		"parbench",
		"fork/join",
		"version",
		"completion",
		"run",
		"pi",
		"foreach",
		"plan",
	}

	for _, want := range expectedStrings {
		if !strings.Contains(help, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	expectedFlags := []string{
		"config",
		"verbose",
		"no-color",
		"output",
		"output-file",
		"threshold",
		"scheduler",
		"pool-size",
		"min-per-thread",
		"fallback-parallelism",
		"max-threads",
		"seed",
	}

	for _, flagName := range expectedFlags {
		flag := cmd.PersistentFlags().Lookup(flagName)
		if flag == nil {
			t.Errorf("expected persistent flag %q to be defined", flagName)
		}
	}
}

func TestRootCommandFlagDefaults(t *testing.T) {
	cmd := newRootCmd()

	tests := []struct {
		name     string
		flag     string
		expected string
	}{
		{name: "config default", flag: "config", expected: ""},
		{name: "output default", flag: "output", expected: ""},
		{name: "verbose default", flag: "verbose", expected: "false"},
		{name: "no-color default", flag: "no-color", expected: "false"},
		{name: "threshold default", flag: "threshold", expected: "25"},
		{name: "scheduler default", flag: "scheduler", expected: executor.SchedulerAsync},
		{name: "min-per-thread default", flag: "min-per-thread", expected: "25"},
		{name: "fallback-parallelism default", flag: "fallback-parallelism", expected: "2"},
		{name: "max-threads default", flag: "max-threads", expected: "0"},
		{name: "seed default", flag: "seed", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.flag)
			}

			if flag.DefValue != tt.expected {
				t.Errorf("expected default value %q, got %q", tt.expected, flag.DefValue)
			}
		})
	}
}

func TestRootCommandSilenceFlags(t *testing.T) {
	cmd := newRootCmd()

	if !cmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}

	if !cmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}
}

func TestRootCommandShortFlags(t *testing.T) {
	cmd := newRootCmd()

	shortFlags := map[string]string{
		"o": "output",
		"v": "verbose",
		"t": "threshold",
	}

	for short, long := range shortFlags {
		shortFlag := cmd.PersistentFlags().ShorthandLookup(short)
		if shortFlag == nil {
			t.Errorf("expected short flag -%s for %s", short, long)
			continue
		}

		if shortFlag.Name != long {
			t.Errorf("expected short flag -%s to map to %s, got %s", short, long, shortFlag.Name)
		}
	}
}

func TestRootCommandVersionFlag(t *testing.T) {
	stdout, _, err := executeCommand(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "parbench ") {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestRootCommandInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown scheduler", args: []string{"plan", "--scheduler", "eager"}},
		{name: "unknown format", args: []string{"plan", "-o", "xml"}},
		{name: "negative max threads", args: []string{"plan", "--max-threads=-1"}},
		{name: "zero step", args: []string{"run", "--step=0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("expected configuration error, got nil")
			}
			if !strings.Contains(err.Error(), "validation failed") {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		noColor   bool
		wantDebug bool
		wantJSON  bool
	}{
		{name: "default", wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
		{name: "no color uses json", verbose: true, noColor: true, wantDebug: true, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogging(&buf, tt.verbose, tt.noColor)
			logger.Debug("probe")

			got := buf.String()
			if strings.Contains(got, "probe") != tt.wantDebug {
				t.Errorf("debug visibility = %v, want %v (log %q)", !tt.wantDebug, tt.wantDebug, got)
			}
			if tt.wantJSON && !strings.HasPrefix(got, "{") {
				t.Errorf("expected JSON log lines, got %q", got)
			}
		})
	}
}
