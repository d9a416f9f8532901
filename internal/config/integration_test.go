package config

import (
	"context"
	"sync"
	"testing"

	"github.com/aryankumar/parbench/internal/experiment"
	"github.com/spf13/pflag"
)

const precedenceConfig = `
experiment:
  trials: 3
forkJoin:
  threshold: 40
sampling:
  seed: 11
`

// TestManager_Precedence checks file < environment < changed flag
func TestManager_Precedence(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		args          []string
		wantTrials    int
		wantThreshold int
		wantSeed      uint64
	}{
		{
			name:          "file only",
			wantTrials:    3,
			wantThreshold: 40,
			wantSeed:      11,
		},
		{
			name:          "environment beats file",
			env:           map[string]string{"PARBENCH_EXPERIMENT_TRIALS": "6", "PARBENCH_SAMPLING_SEED": "21"},
			wantTrials:    6,
			wantThreshold: 40,
			wantSeed:      21,
		},
		{
			name:          "changed flag beats environment",
			env:           map[string]string{"PARBENCH_EXPERIMENT_TRIALS": "6"},
			args:          []string{"--trials=9", "--threshold=5"},
			wantTrials:    9,
			wantThreshold: 5,
			wantSeed:      11,
		},
		{
			name:          "unchanged flag default does not override",
			args:          []string{},
			wantTrials:    3,
			wantThreshold: 40,
			wantSeed:      11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.Int("trials", experiment.DefaultTrials, "")
			flags.Int("threshold", 25, "")
			if err := flags.Parse(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			manager := NewManager(writeConfig(t, precedenceConfig))
			if err := manager.BindFlag(KeyTrials, flags.Lookup("trials")); err != nil {
				t.Fatalf("bind failed: %v", err)
			}
			if err := manager.BindFlag(KeyThreshold, flags.Lookup("threshold")); err != nil {
				t.Fatalf("bind failed: %v", err)
			}

			cfg, err := manager.Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.Experiment.Trials != tt.wantTrials {
				t.Errorf("got trials %d, want %d", cfg.Experiment.Trials, tt.wantTrials)
			}
			if cfg.ForkJoin.Threshold != tt.wantThreshold {
				t.Errorf("got threshold %d, want %d", cfg.ForkJoin.Threshold, tt.wantThreshold)
			}
			if cfg.Sampling.Seed != tt.wantSeed {
				t.Errorf("got seed %d, want %d", cfg.Sampling.Seed, tt.wantSeed)
			}
		})
	}
}

func TestManager_BindFlag_Missing(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := NewManager("").BindFlag(KeyTrials, flags.Lookup("absent")); err == nil {
		t.Error("expected error binding a missing flag")
	}
}

// TestConfiguredSweep runs a small experiment built entirely from a config file
func TestConfiguredSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	manager := NewManager(writeConfig(t, `
experiment:
  start: 100
  end: 300
  step: 100
  trials: 2
  kernels: [reduce, pi]
forkJoin:
  scheduler: deferred
sampling:
  seed: 3
`))
	cfg, err := manager.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should be valid: %v", err)
	}

	env, err := cfg.NewEnv(nil, nil)
	if err != nil {
		t.Fatalf("env failed: %v", err)
	}
	driver, err := experiment.NewDriver(cfg.ExperimentConfig(), env, nil)
	if err != nil {
		t.Fatalf("driver failed: %v", err)
	}

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Two kernels, two variants each
	if len(report.Series) != 4 {
		t.Fatalf("got %d series, want 4", len(report.Series))
	}
	for _, s := range report.Series {
		if len(s.Points) != 2 {
			t.Errorf("series %s/%s has %d points, want 2", s.Kernel, s.Variant, len(s.Points))
		}
		for _, p := range s.Points {
			if p.Trials != 2 {
				t.Errorf("point %d of %s has %d trials", p.Size, s.Kernel, p.Trials)
			}
		}
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	path := writeConfig(t, precedenceConfig)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := NewManager(path).Load()
			if err != nil {
				errs <- err
				return
			}
			if cfg.Experiment.Trials != 3 {
				t.Errorf("got trials %d, want 3", cfg.Experiment.Trials)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent load failed: %v", err)
	}
}
