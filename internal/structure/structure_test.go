// internal/structure/structure_test.go
package structure

import (
	"testing"

	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

func TestValidate(t *testing.T) {
	good := &Structure{
		Positions: []float32{0, 0, 0, 1, 1, 1},
		Species:   []string{"Cu", "Cu"},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Valid structure rejected: %v", err)
	}

	empty := &Structure{}
	if err := empty.Validate(); err == nil {
		t.Error("Expected error for structure with no positions")
	}

	ragged := &Structure{Positions: []float32{1, 2, 3, 4}, Species: []string{"Cu"}}
	if err := ragged.Validate(); err == nil {
		t.Error("Expected error for positions not divisible by 3")
	}

	mismatch := &Structure{Positions: []float32{0, 0, 0, 1, 1, 1}, Species: []string{"Cu"}}
	if err := mismatch.Validate(); err == nil {
		t.Error("Expected error for species count mismatch")
	}

	badCell := &Structure{
		Positions: []float32{0, 0, 0},
		Species:   []string{"Cu"},
		Cell:      []float32{1, 2, 3},
	}
	if err := badCell.Validate(); err == nil {
		t.Error("Expected error for partial cell")
	}

	periodic := &Structure{
		Positions: []float32{0, 0, 0},
		Species:   []string{"Cu"},
		Cell:      []float32{10, 0, 0, 0, 10, 0, 0, 0, 10},
	}
	if err := periodic.Validate(); err != nil {
		t.Errorf("Valid periodic structure rejected: %v", err)
	}
}

func TestHashIsStableAndSensitive(t *testing.T) {
	a := &Structure{Positions: []float32{1, 2, 3}, Species: []string{"Cu"}}
	b := &Structure{Positions: []float32{1, 2, 3}, Species: []string{"Cu"}}
	if a.Hash() != b.Hash() {
		t.Error("Identical structures hash differently")
	}

	moved := &Structure{Positions: []float32{1, 2, 3.0001}, Species: []string{"Cu"}}
	if a.Hash() == moved.Hash() {
		t.Error("Position change did not change the hash")
	}

	relabeled := &Structure{Positions: []float32{1, 2, 3}, Species: []string{"Ag"}}
	if a.Hash() == relabeled.Hash() {
		t.Error("Species change did not change the hash")
	}

	withCell := &Structure{
		Positions: []float32{1, 2, 3},
		Species:   []string{"Cu"},
		Cell:      []float32{10, 0, 0, 0, 10, 0, 0, 0, 10},
	}
	if a.Hash() == withCell.Hash() {
		t.Error("Adding a cell did not change the hash")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &Structure{
		Positions: []float32{1, 2, 3},
		Species:   []string{"Cu"},
		Cell:      []float32{10, 0, 0, 0, 10, 0, 0, 0, 10},
	}
	cp := orig.Clone()
	cp.Positions[0] = 99
	cp.Species[0] = "Au"
	cp.Cell[0] = 99

	if orig.Positions[0] != 1 || orig.Species[0] != "Cu" || orig.Cell[0] != 10 {
		t.Error("Mutating the clone altered the original")
	}
}

func TestFromWire(t *testing.T) {
	w := &pb.Structure{
		Positions: []float32{0, 0, 0},
		Species:   []string{"H"},
	}
	s, err := FromWire(w)
	if err != nil {
		t.Fatalf("FromWire failed: %v", err)
	}
	if s.NumAtoms() != 1 {
		t.Errorf("NumAtoms = %d, expected 1", s.NumAtoms())
	}

	if _, err := FromWire(nil); err == nil {
		t.Error("Expected error for nil wire structure")
	}

	bad := &pb.Structure{Positions: []float32{1, 2}, Species: []string{"H"}}
	if _, err := FromWire(bad); err == nil {
		t.Error("Expected error for malformed wire structure")
	}
}
