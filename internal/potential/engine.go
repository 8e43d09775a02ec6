// internal/potential/engine.go
package potential

import "github.com/mdfleet/mdfleet/internal/structure"

// Result is one energy+forces evaluation for a single structure. Forces are
// flattened N×3, matching the structure's positions layout.
type Result struct {
	Energy float64
	Forces []float32
}

// Engine runs grouped inference over a batch of structures.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// EvaluateBatch evaluates every structure in one model call and returns
	// one Result per input, in input order. All structures in a batch must
	// share the same atom count.
	EvaluateBatch(batch []*structure.Structure) ([]Result, error)

	// ModelID identifies the loaded model; it namespaces cache keys.
	ModelID() string

	// Close releases any resources held by the engine.
	Close() error
}
