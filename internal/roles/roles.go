// Package roles partitions the worker pool into runners and evaluators from a
// YAML manifest and validates the split before anything starts.
package roles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role of a worker process for its lifetime.
type Role string

const (
	RoleRunner    Role = "runner"
	RoleEvaluator Role = "evaluator"
)

// Worker is one pool member. Evaluators must carry an address runners can
// dial; runners dial out only, so their addr may be empty.
type Worker struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr,omitempty"`
}

// Manifest is the on-disk pool description: the full worker list plus the
// explicit ID lists that split it into the two roles.
type Manifest struct {
	Workers    []Worker `yaml:"workers"`
	Evaluators []string `yaml:"evaluators"`
	Runners    []string `yaml:"runners"`
}

// ConfigurationError reports an invalid role split. It is fatal at startup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid worker pool configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// LoadManifest reads and parses a pool manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse pool manifest: %w", err)
	}
	return &m, nil
}

// Pool is the validated, immutable role assignment. Each worker's role is
// fixed for the process lifetime.
type Pool struct {
	workers    []Worker
	roles      map[string]Role
	evaluators []Worker
	runners    []Worker
}

// NewPool validates a manifest: the two ID lists must be disjoint, cover the
// whole pool, and each name at least one worker; evaluators need addresses.
func NewPool(m *Manifest) (*Pool, error) {
	if len(m.Workers) == 0 {
		return nil, configErrorf("worker pool is empty")
	}

	byID := make(map[string]Worker, len(m.Workers))
	for _, w := range m.Workers {
		if w.ID == "" {
			return nil, configErrorf("worker with empty id")
		}
		if _, dup := byID[w.ID]; dup {
			return nil, configErrorf("duplicate worker id %q", w.ID)
		}
		byID[w.ID] = w
	}

	if len(m.Evaluators) == 0 {
		return nil, configErrorf("evaluator list is empty")
	}
	if len(m.Runners) == 0 {
		return nil, configErrorf("runner list is empty")
	}

	p := &Pool{
		workers: m.Workers,
		roles:   make(map[string]Role, len(m.Workers)),
	}

	for _, id := range m.Evaluators {
		w, ok := byID[id]
		if !ok {
			return nil, configErrorf("evaluator %q is not in the worker pool", id)
		}
		if w.Addr == "" {
			return nil, configErrorf("evaluator %q has no address", id)
		}
		if _, seen := p.roles[id]; seen {
			return nil, configErrorf("worker %q listed twice as evaluator", id)
		}
		p.roles[id] = RoleEvaluator
		p.evaluators = append(p.evaluators, w)
	}

	for _, id := range m.Runners {
		w, ok := byID[id]
		if !ok {
			return nil, configErrorf("runner %q is not in the worker pool", id)
		}
		if prev, seen := p.roles[id]; seen {
			if prev == RoleEvaluator {
				return nil, configErrorf("worker %q appears in both role lists", id)
			}
			return nil, configErrorf("worker %q listed twice as runner", id)
		}
		p.roles[id] = RoleRunner
		p.runners = append(p.runners, w)
	}

	// Every pool member must have exactly one role.
	for id := range byID {
		if _, ok := p.roles[id]; !ok {
			return nil, configErrorf("worker %q is in neither role list", id)
		}
	}

	return p, nil
}

// RoleOf returns the role recorded for a worker ID.
func (p *Pool) RoleOf(id string) (Role, bool) {
	r, ok := p.roles[id]
	return r, ok
}

// Evaluators returns the evaluator workers in manifest order.
func (p *Pool) Evaluators() []Worker {
	return p.evaluators
}

// Runners returns the runner workers in manifest order.
func (p *Pool) Runners() []Worker {
	return p.runners
}

// EvaluatorAddrs returns the dial addresses of all evaluators, in order.
func (p *Pool) EvaluatorAddrs() []string {
	addrs := make([]string, len(p.evaluators))
	for i, w := range p.evaluators {
		addrs[i] = w.Addr
	}
	return addrs
}

// Size returns the total pool size.
func (p *Pool) Size() int {
	return len(p.workers)
}
