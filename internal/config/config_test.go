// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEvaluatorDefaults(t *testing.T) {
	cfg, err := LoadEvaluator("")
	if err != nil {
		t.Fatalf("LoadEvaluator failed: %v", err)
	}
	if cfg.Port != 50051 {
		t.Errorf("Port = %d, expected 50051", cfg.Port)
	}
	if cfg.MetricsPort != 9100 {
		t.Errorf("MetricsPort = %d, expected 9100", cfg.MetricsPort)
	}
	if cfg.BatchWindowMS != 2 {
		t.Errorf("BatchWindowMS = %d, expected 2", cfg.BatchWindowMS)
	}
	if cfg.BatchWindow() != 2*time.Millisecond {
		t.Errorf("BatchWindow = %s, expected 2ms", cfg.BatchWindow())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestLoadEvaluatorFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `port: 6000
metrics_port: 6001
batch_window_ms: 5
redis: "localhost:6379"
use_mock_engine: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadEvaluator(path)
	if err != nil {
		t.Fatalf("LoadEvaluator failed: %v", err)
	}
	if cfg.Port != 6000 || cfg.MetricsPort != 6001 {
		t.Errorf("Ports = %d/%d", cfg.Port, cfg.MetricsPort)
	}
	if cfg.BatchWindow() != 5*time.Millisecond {
		t.Errorf("BatchWindow = %s", cfg.BatchWindow())
	}
	if cfg.Redis != "localhost:6379" {
		t.Errorf("Redis = %q", cfg.Redis)
	}
	if !cfg.UseMockEngine {
		t.Error("UseMockEngine not set from file")
	}
}

func TestEvaluatorConfigValidate(t *testing.T) {
	cfg := &EvaluatorConfig{Port: 50051, MetricsPort: 9100, BatchWindowMS: 2}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}

	bad := *cfg
	bad.Port = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero port")
	}

	bad = *cfg
	bad.MetricsPort = cfg.Port
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for colliding ports")
	}

	bad = *cfg
	bad.BatchWindowMS = -1
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for negative batch window")
	}
}

func TestLoadDispatcherDefaults(t *testing.T) {
	cfg, err := LoadDispatcher("")
	if err != nil {
		t.Fatalf("LoadDispatcher failed: %v", err)
	}
	if cfg.Port != 50060 {
		t.Errorf("Port = %d, expected 50060", cfg.Port)
	}
	if cfg.BatchMax != 32 {
		t.Errorf("BatchMax = %d, expected 32", cfg.BatchMax)
	}
	delays := cfg.RetryDelays()
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 5*time.Second {
		t.Errorf("RetryDelays = %v", delays)
	}
}

func TestDispatcherConfigValidate(t *testing.T) {
	good := &DispatcherConfig{
		Port:          50060,
		MetricsPort:   9101,
		PoolManifest:  "/etc/mdfleet/pool.yaml",
		Model:         "s3://models/pot.onnx",
		Steps:         100,
		Timestep:      0.5,
		Friction:      1.0,
		Atoms:         8,
		RetryDelaysMS: []int{1000},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}

	bad := *good
	bad.PoolManifest = ""
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for missing pool manifest")
	}

	bad = *good
	bad.Model = ""
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for missing model")
	}

	bad = *good
	bad.Timestep = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero timestep")
	}

	bad = *good
	bad.RetryDelaysMS = []int{1000, -1}
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for negative retry delay")
	}
}

func TestRunnerConfigValidate(t *testing.T) {
	cfg := &RunnerConfig{RunnerID: "run-0", DispatcherAddr: "localhost:50060"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}

	if err := (&RunnerConfig{DispatcherAddr: "x"}).Validate(); err == nil {
		t.Error("Expected error for missing runner_id")
	}
	if err := (&RunnerConfig{RunnerID: "x"}).Validate(); err == nil {
		t.Error("Expected error for missing dispatcher_addr")
	}
}
