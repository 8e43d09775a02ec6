// internal/roles/roles_test.go
package roles

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validManifest() *Manifest {
	return &Manifest{
		Workers: []Worker{
			{ID: "eval-0", Addr: "10.0.0.1:50051"},
			{ID: "eval-1", Addr: "10.0.0.2:50051"},
			{ID: "run-0"},
			{ID: "run-1"},
		},
		Evaluators: []string{"eval-0", "eval-1"},
		Runners:    []string{"run-0", "run-1"},
	}
}

func TestNewPoolValid(t *testing.T) {
	p, err := NewPool(validManifest())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if p.Size() != 4 {
		t.Errorf("Size = %d, expected 4", p.Size())
	}

	if r, ok := p.RoleOf("eval-0"); !ok || r != RoleEvaluator {
		t.Errorf("RoleOf(eval-0) = %q/%v, expected evaluator", r, ok)
	}
	if r, ok := p.RoleOf("run-1"); !ok || r != RoleRunner {
		t.Errorf("RoleOf(run-1) = %q/%v, expected runner", r, ok)
	}
	if _, ok := p.RoleOf("ghost"); ok {
		t.Error("RoleOf returned a role for an unknown worker")
	}

	addrs := p.EvaluatorAddrs()
	if len(addrs) != 2 || addrs[0] != "10.0.0.1:50051" || addrs[1] != "10.0.0.2:50051" {
		t.Errorf("EvaluatorAddrs = %v", addrs)
	}
}

func TestNewPoolRejectsOverlap(t *testing.T) {
	m := validManifest()
	m.Runners = append(m.Runners, "eval-0")

	_, err := NewPool(m)
	if err == nil {
		t.Fatal("Expected error for worker in both role lists")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected *ConfigurationError, got %T", err)
	}
}

func TestNewPoolRejectsUnassignedWorker(t *testing.T) {
	m := validManifest()
	m.Workers = append(m.Workers, Worker{ID: "run-2"})

	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for worker in neither role list")
	}
}

func TestNewPoolRejectsEmptyRoles(t *testing.T) {
	m := validManifest()
	m.Evaluators = nil
	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for empty evaluator list")
	}

	m = validManifest()
	m.Runners = nil
	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for empty runner list")
	}

	if _, err := NewPool(&Manifest{}); err == nil {
		t.Error("Expected error for empty pool")
	}
}

func TestNewPoolRejectsDuplicateAndUnknownIDs(t *testing.T) {
	m := validManifest()
	m.Workers = append(m.Workers, Worker{ID: "run-0"})
	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for duplicate worker id")
	}

	m = validManifest()
	m.Runners[0] = "not-in-pool"
	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for runner not in the worker pool")
	}
}

func TestNewPoolRequiresEvaluatorAddr(t *testing.T) {
	m := validManifest()
	m.Workers[0].Addr = ""
	if _, err := NewPool(m); err == nil {
		t.Error("Expected error for evaluator without address")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	content := `workers:
  - id: eval-0
    addr: "127.0.0.1:50051"
  - id: run-0
evaluators:
  - eval-0
runners:
  - run-0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Workers) != 2 || m.Workers[0].Addr != "127.0.0.1:50051" {
		t.Errorf("Parsed workers = %+v", m.Workers)
	}
	if _, err := NewPool(m); err != nil {
		t.Errorf("Parsed manifest failed validation: %v", err)
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing manifest file")
	}
}
