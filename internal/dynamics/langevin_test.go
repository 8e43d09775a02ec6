// internal/dynamics/langevin_test.go
package dynamics

import (
	"context"
	"math"
	"testing"

	"github.com/mdfleet/mdfleet/internal/potential"
	"github.com/mdfleet/mdfleet/internal/structure"
)

// harmonicEvaluator answers locally with the same well the mock engine uses.
type harmonicEvaluator struct {
	calls  int
	energy float64
	err    error
}

func (h *harmonicEvaluator) Evaluate(ctx context.Context, s *structure.Structure) (potential.Result, error) {
	h.calls++
	if h.err != nil {
		return potential.Result{}, h.err
	}
	if h.energy != 0 {
		forces := make([]float32, len(s.Positions))
		return potential.Result{Energy: h.energy, Forces: forces}, nil
	}
	var e float64
	forces := make([]float32, len(s.Positions))
	for i, p := range s.Positions {
		e += float64(p) * float64(p)
		forces[i] = -p
	}
	return potential.Result{Energy: e, Forces: forces}, nil
}

func startStructure() *structure.Structure {
	return &structure.Structure{
		Positions: []float32{1, -1, 0.5},
		Species:   []string{"Cu"},
	}
}

func TestNewLangevinValidation(t *testing.T) {
	if _, err := NewLangevin(0, 1, 300, 1); err == nil {
		t.Error("Expected error for zero timestep")
	}
	if _, err := NewLangevin(0.5, 0, 300, 1); err == nil {
		t.Error("Expected error for zero friction")
	}
	if _, err := NewLangevin(0.5, 1, -1, 1); err == nil {
		t.Error("Expected error for negative temperature")
	}
	if _, err := NewLangevin(0.5, 1, 0, 1); err != nil {
		t.Errorf("Zero temperature rejected: %v", err)
	}
}

func TestStepIsDeterministicForSameSeed(t *testing.T) {
	run := func(seed int64) []float32 {
		stepper, err := NewLangevin(0.1, 1.0, 300, seed)
		if err != nil {
			t.Fatalf("NewLangevin failed: %v", err)
		}
		s := startStructure()
		eval := &harmonicEvaluator{}
		for i := 0; i < 5; i++ {
			if _, err := stepper.Step(context.Background(), s, eval); err != nil {
				t.Fatalf("Step %d failed: %v", i, err)
			}
		}
		return s.Positions
	}

	a := run(42)
	b := run(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same seed diverged at position %d: %f vs %f", i, a[i], b[i])
		}
	}

	c := run(43)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("Different seeds produced identical trajectories")
	}
}

func TestStepUsesExactlyOneEvaluation(t *testing.T) {
	stepper, _ := NewLangevin(0.1, 1.0, 300, 1)
	eval := &harmonicEvaluator{}
	s := startStructure()

	const steps = 7
	for i := 0; i < steps; i++ {
		if _, err := stepper.Step(context.Background(), s, eval); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if eval.calls != steps {
		t.Errorf("Evaluator called %d times over %d steps", eval.calls, steps)
	}
}

func TestStepRelaxesTowardMinimumAtZeroTemperature(t *testing.T) {
	// Without noise the harmonic well contracts positions every step.
	stepper, _ := NewLangevin(0.1, 1.0, 0, 1)
	eval := &harmonicEvaluator{}
	s := startStructure()

	first, err := stepper.Step(context.Background(), s, eval)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	var last float64
	for i := 0; i < 20; i++ {
		last, err = stepper.Step(context.Background(), s, eval)
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if last >= first {
		t.Errorf("Energy did not decrease: first %f, last %f", first, last)
	}
}

func TestStepRejectsDivergence(t *testing.T) {
	stepper, _ := NewLangevin(0.1, 1.0, 300, 1)
	s := startStructure()

	if _, err := stepper.Step(context.Background(), s, &harmonicEvaluator{energy: math.NaN()}); err == nil {
		t.Error("Expected error for NaN energy")
	}
	if _, err := stepper.Step(context.Background(), s, &harmonicEvaluator{energy: math.Inf(1)}); err == nil {
		t.Error("Expected error for infinite energy")
	}
}

func TestStepPropagatesEvaluatorError(t *testing.T) {
	stepper, _ := NewLangevin(0.1, 1.0, 300, 1)
	s := startStructure()
	before := append([]float32(nil), s.Positions...)

	eval := &harmonicEvaluator{err: context.DeadlineExceeded}
	if _, err := stepper.Step(context.Background(), s, eval); err == nil {
		t.Fatal("Expected evaluator error to propagate")
	}
	for i := range before {
		if s.Positions[i] != before[i] {
			t.Error("Failed step mutated positions")
			break
		}
	}
}
