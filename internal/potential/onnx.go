// internal/potential/onnx.go
package potential

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mdfleet/mdfleet/internal/structure"
)

// speciesIndex maps the species labels a potential was trained on to the
// integer codes its embedding layer expects. Covers the elements the group's
// models are trained for; unknown labels fail the batch up front.
var speciesIndex = map[string]int64{
	"H": 0, "C": 1, "N": 2, "O": 3, "S": 4,
	"Na": 5, "Cl": 6, "Cu": 7, "Ag": 8, "Au": 9,
}

// ONNX wraps an ONNX runtime session for thread-safe grouped inference.
// It implements the Engine interface.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	modelID string
}

// NewONNX creates an ONNX engine by loading the model from modelPath.
func NewONNX(modelPath string) (*ONNX, error) {
	err := ort.InitializeEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputNames := []string{"positions", "species", "cell"}
	outputNames := []string{"energy", "forces"}

	// Dynamic session so the batch dimension can vary per call.
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session: session,
		modelID: filepath.Base(modelPath),
	}, nil
}

// EvaluateBatch packs the batch into positions/species/cell tensors, runs one
// inference call, and splits the combined output back per structure.
func (e *ONNX) EvaluateBatch(batch []*structure.Structure) ([]Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, fmt.Errorf("inference session is nil")
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty structure batch")
	}

	n := batch[0].NumAtoms()
	nb := int64(len(batch))

	positions := make([]float32, 0, nb*int64(n)*3)
	species := make([]int64, 0, nb*int64(n))
	cells := make([]float32, 0, nb*9)

	for i, s := range batch {
		if s.NumAtoms() != n {
			return nil, fmt.Errorf("structure %d has %d atoms, expected %d", i, s.NumAtoms(), n)
		}
		positions = append(positions, s.Positions...)
		for _, label := range s.Species {
			code, ok := speciesIndex[label]
			if !ok {
				return nil, fmt.Errorf("structure %d has unknown species %q", i, label)
			}
			species = append(species, code)
		}
		if len(s.Cell) == 9 {
			cells = append(cells, s.Cell...)
		} else {
			// Non-periodic structures carry a zero cell; the model masks it.
			cells = append(cells, make([]float32, 9)...)
		}
	}

	posTensor, err := ort.NewTensor(ort.NewShape(nb, int64(n), 3), positions)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer posTensor.Destroy()

	spTensor, err := ort.NewTensor(ort.NewShape(nb, int64(n)), species)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer spTensor.Destroy()

	cellTensor, err := ort.NewTensor(ort.NewShape(nb, 3, 3), cells)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer cellTensor.Destroy()

	energyOut, err := ort.NewTensor(ort.NewShape(nb), make([]float32, nb))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer energyOut.Destroy()

	forcesOut, err := ort.NewTensor(ort.NewShape(nb, int64(n), 3), make([]float32, nb*int64(n)*3))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer forcesOut.Destroy()

	err = e.session.Run(
		[]ort.ArbitraryTensor{posTensor, spTensor, cellTensor},
		[]ort.ArbitraryTensor{energyOut, forcesOut},
	)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	energies := energyOut.GetData()
	forces := forcesOut.GetData()
	perStruct := n * 3

	results := make([]Result, len(batch))
	for i := range batch {
		f := make([]float32, perStruct)
		copy(f, forces[i*perStruct:(i+1)*perStruct])
		results[i] = Result{
			Energy: float64(energies[i]),
			Forces: f,
		}
	}
	return results, nil
}

// ModelID returns the model file name.
func (e *ONNX) ModelID() string {
	return e.modelID
}

// Close releases the ONNX session resources.
func (e *ONNX) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
