// internal/dispatch/initial.go
package dispatch

import (
	"math"
	"math/rand"

	"github.com/mdfleet/mdfleet/internal/structure"
)

// LatticeInitialConditions builds the default ensemble setup: each trajectory
// starts from a jittered cubic lattice of identical atoms. The jitter stream
// is seeded from baseSeed and the trajectory index, so the i-th trajectory's
// initial conditions are reproducible no matter when they are generated.
func LatticeInitialConditions(atoms int, species string, spacing float64, baseSeed int64) InitialConditions {
	return func(index int) (*structure.Structure, int64) {
		seed := baseSeed + int64(index)
		rng := rand.New(rand.NewSource(seed))

		side := int(math.Ceil(math.Cbrt(float64(atoms))))
		s := &structure.Structure{
			Positions: make([]float32, 0, atoms*3),
			Species:   make([]string, 0, atoms),
		}

		placed := 0
		for ix := 0; ix < side && placed < atoms; ix++ {
			for iy := 0; iy < side && placed < atoms; iy++ {
				for iz := 0; iz < side && placed < atoms; iz++ {
					jitter := func() float64 { return (rng.Float64() - 0.5) * 0.1 * spacing }
					s.Positions = append(s.Positions,
						float32(float64(ix)*spacing+jitter()),
						float32(float64(iy)*spacing+jitter()),
						float32(float64(iz)*spacing+jitter()),
					)
					s.Species = append(s.Species, species)
					placed++
				}
			}
		}
		return s, seed
	}
}
