// internal/potential/mock.go
package potential

import (
	"fmt"

	"github.com/mdfleet/mdfleet/internal/structure"
)

// Mock is a deterministic Engine for tests and the use_mock flag. It computes
// a harmonic well around the origin: energy is the sum of squared positions,
// forces are the negated positions, so outputs are a pure function of input.
type Mock struct {
	// ShouldError if true, EvaluateBatch will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times EvaluateBatch was called
	CallCount int
	// BatchSizes records the size of every batch seen, in order
	BatchSizes []int
}

// NewMock creates a Mock engine.
func NewMock() *Mock {
	return &Mock{}
}

// EvaluateBatch returns the harmonic-well result for each structure.
func (m *Mock) EvaluateBatch(batch []*structure.Structure) ([]Result, error) {
	m.CallCount++
	m.BatchSizes = append(m.BatchSizes, len(batch))

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return nil, fmt.Errorf("%s", m.ErrorMessage)
		}
		return nil, fmt.Errorf("mock inference error")
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("empty structure batch")
	}

	results := make([]Result, len(batch))
	for i, s := range batch {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("structure %d: %w", i, err)
		}
		var energy float64
		forces := make([]float32, len(s.Positions))
		for j, p := range s.Positions {
			energy += float64(p) * float64(p)
			forces[j] = -p
		}
		results[i] = Result{Energy: energy, Forces: forces}
	}
	return results, nil
}

// ModelID identifies the mock in cache keys.
func (m *Mock) ModelID() string {
	return "mock"
}

// Close is a no-op for the mock implementation.
func (m *Mock) Close() error {
	return nil
}

// SetError configures the mock to return an error on subsequent calls.
func (m *Mock) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error.
func (m *Mock) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure Mock implements Engine at compile time
var _ Engine = (*Mock)(nil)
