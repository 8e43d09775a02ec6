// Package fleetpb holds the wire types and gRPC bindings for the fleet
// services. The bindings are hand-maintained: messages are plain structs
// carried by the JSON codec (see codec.go) instead of protoc output, so the
// tree builds without a generation step. The client/server glue below follows
// the exact shape protoc-gen-go-grpc emits.
package fleetpb

// Structure is one atomic configuration: flattened N×3 positions, an optional
// flattened 3×3 cell (empty means non-periodic), and per-atom species labels.
type Structure struct {
	Positions []float32 `json:"positions"`
	Cell      []float32 `json:"cell,omitempty"`
	Species   []string  `json:"species"`
}

// NumAtoms returns the atom count implied by the positions slice.
func (s *Structure) NumAtoms() int {
	if s == nil {
		return 0
	}
	return len(s.Positions) / 3
}

// LoadModelRequest is the evaluator bootstrap message, sent once per
// evaluator by the dispatcher at startup.
type LoadModelRequest struct {
	ModelURI  string `json:"model_uri"`
	Device    string `json:"device"`
	BatchMax  int32  `json:"batch_max"`
	Precision string `json:"precision"`
}

type LoadModelResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// EvaluateRequest asks the evaluator for one energy+forces evaluation. The
// sequence number is unique per runner and echoed back on the response so the
// caller can verify the pairing.
type EvaluateRequest struct {
	RunnerID  string     `json:"runner_id"`
	Seq       uint64     `json:"seq"`
	Structure *Structure `json:"structure"`
}

type EvaluateResponse struct {
	Seq    uint64    `json:"seq"`
	Energy float64   `json:"energy"`
	Forces []float32 `json:"forces"`
}

type RegisterRunnerRequest struct {
	RunnerID string `json:"runner_id"`
}

type RegisterRunnerResponse struct {
	Accepted            bool     `json:"accepted"`
	EvaluatorAddrs      []string `json:"evaluator_addrs"`
	PollIntervalSeconds int32    `json:"poll_interval_seconds"`
}

type PollTrajectoryRequest struct {
	RunnerID string `json:"runner_id"`
}

// PollTrajectoryResponse carries at most one assignment; Assigned=false means
// the queue was empty and the runner should poll again later.
type PollTrajectoryResponse struct {
	Assigned   bool            `json:"assigned"`
	Trajectory *TrajectorySpec `json:"trajectory,omitempty"`
}

// TrajectorySpec is everything a runner needs to propagate one trajectory.
// Seed and Initial together are the initial conditions; retries of the same
// trajectory carry identical values so attempts replay the same setup.
type TrajectorySpec struct {
	TrajectoryID string     `json:"trajectory_id"`
	Attempt      int32      `json:"attempt"`
	Seed         int64      `json:"seed"`
	Steps        int64      `json:"steps"`
	Timestep     float64    `json:"timestep"`
	Friction     float64    `json:"friction"`
	Temperature  float64    `json:"temperature"`
	Initial      *Structure `json:"initial"`
}

type ReportTrajectoryRequest struct {
	RunnerID     string  `json:"runner_id"`
	TrajectoryID string  `json:"trajectory_id"`
	Attempt      int32   `json:"attempt"`
	Succeeded    bool    `json:"succeeded"`
	Error        string  `json:"error,omitempty"`
	FinalEnergy  float64 `json:"final_energy,omitempty"`
	StepsDone    int64   `json:"steps_done"`
}

type ReportTrajectoryResponse struct {
	Accepted bool `json:"accepted"`
}

type SubmitEnsembleRequest struct {
	Count int32 `json:"count"`
}

type SubmitEnsembleResponse struct {
	Created int32 `json:"created"`
}

type StatusRequest struct{}

type EvaluatorStatus struct {
	ID          string `json:"id"`
	Addr        string `json:"addr"`
	ModelLoaded bool   `json:"model_loaded"`
}

type StatusResponse struct {
	Pending    int32             `json:"pending"`
	Running    int32             `json:"running"`
	Succeeded  int32             `json:"succeeded"`
	Failed     int32             `json:"failed"`
	Runners    int32             `json:"runners"`
	Evaluators []EvaluatorStatus `json:"evaluators"`
}
