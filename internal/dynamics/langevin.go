// Package dynamics propagates a structure one step at a time. The stepper's
// only collaborator is an Evaluator: each step consumes exactly one
// energy+forces evaluation and blocks until it resolves.
package dynamics

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/mdfleet/mdfleet/internal/potential"
	"github.com/mdfleet/mdfleet/internal/structure"
)

// Evaluator is the single capability the stepper needs. The remote model
// proxy satisfies it, as does any local engine wrapper.
type Evaluator interface {
	Evaluate(ctx context.Context, s *structure.Structure) (potential.Result, error)
}

// Langevin is an overdamped Langevin stepper:
//
//	x += (dt/γ)·F + sqrt(2·kT·dt/γ)·ξ
//
// The noise stream is seeded per trajectory, so two steppers with the same
// seed produce identical updates given identical evaluations.
type Langevin struct {
	dt          float64
	friction    float64
	temperature float64
	rng         *rand.Rand
}

// NewLangevin creates a stepper. Friction must be positive.
func NewLangevin(dt, friction, temperature float64, seed int64) (*Langevin, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("timestep must be positive, got %g", dt)
	}
	if friction <= 0 {
		return nil, fmt.Errorf("friction must be positive, got %g", friction)
	}
	if temperature < 0 {
		return nil, fmt.Errorf("temperature must be non-negative, got %g", temperature)
	}
	return &Langevin{
		dt:          dt,
		friction:    friction,
		temperature: temperature,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Step advances the structure in place and returns the step's energy.
// Non-finite energies or positions abort the step as a divergence.
func (l *Langevin) Step(ctx context.Context, s *structure.Structure, eval Evaluator) (float64, error) {
	res, err := eval.Evaluate(ctx, s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(res.Energy) || math.IsInf(res.Energy, 0) {
		return 0, fmt.Errorf("integration diverged: energy is %g", res.Energy)
	}
	if len(res.Forces) != len(s.Positions) {
		return 0, fmt.Errorf("forces length %d does not match positions length %d", len(res.Forces), len(s.Positions))
	}

	mobility := l.dt / l.friction
	sigma := math.Sqrt(2 * l.temperature * l.dt / l.friction)

	for i := range s.Positions {
		x := float64(s.Positions[i]) + mobility*float64(res.Forces[i]) + sigma*l.rng.NormFloat64()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("integration diverged: position %d is %g", i, x)
		}
		s.Positions[i] = float32(x)
	}
	return res.Energy, nil
}
