package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/subread"
)

func TestAppConfigApplyDefaults(t *testing.T) {
	var cfg AppConfig
	cfg.ApplyDefaults()

	if cfg.Name != "readflow" || cfg.Environment != "development" {
		t.Errorf("unexpected identity %q/%q", cfg.Name, cfg.Environment)
	}
	p := cfg.Pipeline
	if p.QueueCapacity != 1000 {
		t.Errorf("expected queue capacity 1000, got %d", p.QueueCapacity)
	}
	if p.EncoderWorkers < 1 || p.ReassemblerWorkers != 2 || p.TaggerWorkers != 2 || p.WriterWorkers != 1 {
		t.Errorf("unexpected worker counts %+v", p)
	}
	if p.IncompleteFamilies != "flush" {
		t.Errorf("expected flush policy, got %q", p.IncompleteFamilies)
	}
	if p.Encoder.MaxLengthRatio != 0.05 || p.Encoder.MinTrimmedColumns != 200 || p.Encoder.Stride != 5 {
		t.Errorf("encoder defaults not applied: %+v", p.Encoder)
	}
	if cfg.Monitor.Addr != ":8080" || cfg.Telemetry.SampleRatio != 1 {
		t.Errorf("unexpected monitor/telemetry defaults %+v %+v", cfg.Monitor, cfg.Telemetry)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		errMsg string
	}{
		{"invalid environment", func(c *AppConfig) { c.Environment = "qa" }, "environment: must be one of"},
		{"zero queue", func(c *AppConfig) { c.Pipeline.QueueCapacity = -1 }, "pipeline.queue_capacity: must be at least 1"},
		{"bad policy", func(c *AppConfig) { c.Pipeline.IncompleteFamilies = "keep" }, "pipeline.incomplete_families"},
		{"ratio out of range", func(c *AppConfig) { c.Pipeline.Encoder.MaxLengthRatio = 3 }, "pipeline.encoder.max_length_ratio: must be at most 1"},
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"monitor without addr", func(c *AppConfig) { c.Monitor.Enabled = true; c.Monitor.Addr = " " }, "monitor.addr: is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg AppConfig
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestIncompletePolicy(t *testing.T) {
	p := PipelineConfig{IncompleteFamilies: "flush"}
	if got, err := p.IncompletePolicy(); err != nil || got != subread.Flush {
		t.Errorf("got %q, %v", got, err)
	}
	p.IncompleteFamilies = "never"
	if _, err := p.IncompletePolicy(); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadWithYAML(t *testing.T) {
	path := writeConfig(t, `
name: readflow-test
environment: staging
pipeline:
  queue_capacity: 64
  incomplete_families: discard
  encoder:
    min_trimmed_columns: 150
monitor:
  enabled: true
  addr: "127.0.0.1:9000"
`)

	cfg, err := Load("readflow-test", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Environment != "staging" || cfg.Pipeline.QueueCapacity != 64 || cfg.Pipeline.IncompleteFamilies != "discard" {
		t.Errorf("yaml values not loaded: %+v", cfg)
	}
	if cfg.Pipeline.Encoder.MinTrimmedColumns != 150 || cfg.Pipeline.Encoder.Stride != 5 {
		t.Errorf("expected yaml override plus defaults, got %+v", cfg.Pipeline.Encoder)
	}
	if !cfg.Monitor.Enabled || cfg.Monitor.Addr != "127.0.0.1:9000" {
		t.Errorf("monitor not loaded: %+v", cfg.Monitor)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  queue_capacity: 64\n")
	t.Setenv("PIPELINE_QUEUE_CAPACITY", "128")

	cfg, err := Load("readflow", WithConfigFile(path))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.QueueCapacity != 128 {
		t.Errorf("expected env override 128, got %d", cfg.Pipeline.QueueCapacity)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PIPELINE_QUEUE_CAPACITY", "128")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("queue-capacity", 10, "")
	fs.String("policy", "discard", "")
	if err := fs.Parse([]string{"--queue-capacity=7"}); err != nil {
		t.Fatal(err)
	}
	keys := map[string]string{
		"queue-capacity": "pipeline.queue_capacity",
		"policy":         "pipeline.incomplete_families",
	}

	cfg, err := Load("readflow", WithConfigFile("/nonexistent/config.yml"), WithFlags(fs, keys))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.QueueCapacity != 7 {
		t.Errorf("expected flag value 7, got %d", cfg.Pipeline.QueueCapacity)
	}
	if cfg.Pipeline.IncompleteFamilies != "flush" {
		t.Errorf("unset flag should not override, got %q", cfg.Pipeline.IncompleteFamilies)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  incomplete_families: sometimes\n")
	if _, err := Load("readflow", WithConfigFile(path)); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg AppConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadFindsDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("pipeline:\n  queue_capacity: 32\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MONITOR_ADDR=127.0.0.1:9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("MONITOR_ADDR") })

	cfg, err := Load("readflow")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.QueueCapacity != 32 {
		t.Errorf("config.yml in the working directory not read, queue capacity %d", cfg.Pipeline.QueueCapacity)
	}
	if cfg.Monitor.Addr != "127.0.0.1:9100" {
		t.Errorf(".env in the working directory not read, monitor addr %q", cfg.Monitor.Addr)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("PIPELINE_ENCODER_MAX_LENGTH_RATIO")
	want := "pipeline.encoder.max_length_ratio"
	found := false
	for _, v := range variants {
		if v == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q among %v", want, variants)
	}
	if got := envKeyVariants("MONITOR_ADDR"); len(got) != 2 || got[0] != "monitor_addr" || got[1] != "monitor.addr" {
		t.Errorf("unexpected variants %v", got)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := pflag.NewFlagSet("x", pflag.ContinueOnError)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithFlags(fs, map[string]string{"a": "b"})(&lc)

	if lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
	if lc.Flags != fs || lc.FlagKeys["a"] != "b" {
		t.Error("flag option not applied")
	}
}
