// Package structure holds the atomic configuration payload passed between
// runners and evaluators, with the validation both sides share.
package structure

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// Structure is one atomic configuration. Positions are flattened N×3, Cell is
// nil (non-periodic) or a flattened 3×3 lattice, Species has one label per atom.
type Structure struct {
	Positions []float32
	Cell      []float32
	Species   []string
}

// NumAtoms returns the atom count implied by the positions slice.
func (s *Structure) NumAtoms() int {
	return len(s.Positions) / 3
}

// Validate checks the shape invariants shared by every consumer of a
// structure: positions divisible by 3, species matching the atom count, and
// the cell either absent or a full 3×3.
func (s *Structure) Validate() error {
	if len(s.Positions) == 0 {
		return fmt.Errorf("structure has no positions")
	}
	if len(s.Positions)%3 != 0 {
		return fmt.Errorf("positions length %d is not divisible by 3", len(s.Positions))
	}
	n := s.NumAtoms()
	if len(s.Species) != n {
		return fmt.Errorf("species count %d does not match atom count %d", len(s.Species), n)
	}
	if len(s.Cell) != 0 && len(s.Cell) != 9 {
		return fmt.Errorf("cell length %d, expected 0 or 9", len(s.Cell))
	}
	return nil
}

// Clone returns a deep copy. Steppers mutate positions in place, so anything
// that needs to replay a structure later must hold its own copy.
func (s *Structure) Clone() *Structure {
	out := &Structure{
		Positions: make([]float32, len(s.Positions)),
		Species:   make([]string, len(s.Species)),
	}
	copy(out.Positions, s.Positions)
	copy(out.Species, s.Species)
	if s.Cell != nil {
		out.Cell = make([]float32, len(s.Cell))
		copy(out.Cell, s.Cell)
	}
	return out
}

// Hash returns a hex sha256 over species, positions and cell, used as the
// evaluation cache key together with the model identifier.
func (s *Structure) Hash() string {
	h := sha256.New()
	for _, sp := range s.Species {
		h.Write([]byte(sp))
		h.Write([]byte{0})
	}
	var buf [4]byte
	for _, p := range s.Positions {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(p))
		h.Write(buf[:])
	}
	for _, c := range s.Cell {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(c))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FromWire converts and validates an incoming wire structure.
func FromWire(w *pb.Structure) (*Structure, error) {
	if w == nil {
		return nil, fmt.Errorf("nil structure")
	}
	s := &Structure{
		Positions: w.Positions,
		Cell:      w.Cell,
		Species:   w.Species,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ToWire converts to the wire representation without copying.
func (s *Structure) ToWire() *pb.Structure {
	return &pb.Structure{
		Positions: s.Positions,
		Cell:      s.Cell,
		Species:   s.Species,
	}
}
