// internal/dispatch/service.go
package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mdfleet/mdfleet/internal/middleware"
	"github.com/mdfleet/mdfleet/internal/roles"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// Service exposes the dispatcher over gRPC. It validates runner identity
// against the pool before handing out work.
type Service struct {
	pb.UnimplementedDispatcherServer

	disp         *Dispatcher
	pool         *roles.Pool
	init         InitialConditions
	pollInterval time.Duration

	mu         sync.RWMutex
	evaluators []pb.EvaluatorStatus
}

// NewService creates the gRPC service around a dispatcher.
func NewService(disp *Dispatcher, pool *roles.Pool, init InitialConditions, pollInterval time.Duration) *Service {
	return &Service{
		disp:         disp,
		pool:         pool,
		init:         init,
		pollInterval: pollInterval,
	}
}

// SetEvaluators records the post-bootstrap evaluator roster handed to
// registering runners.
func (s *Service) SetEvaluators(evs []pb.EvaluatorStatus) {
	s.mu.Lock()
	s.evaluators = evs
	s.mu.Unlock()
}

func (s *Service) loadedEvaluatorAddrs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var addrs []string
	for _, e := range s.evaluators {
		if e.ModelLoaded {
			addrs = append(addrs, e.Addr)
		}
	}
	return addrs
}

func (s *Service) checkRunner(id string) error {
	if id == "" {
		return status.Errorf(codes.InvalidArgument, "runner_id is required")
	}
	role, ok := s.pool.RoleOf(id)
	if !ok {
		return status.Errorf(codes.PermissionDenied, "worker %s is not in the pool", id)
	}
	if role != roles.RoleRunner {
		return status.Errorf(codes.PermissionDenied, "worker %s is an %s, not a runner", id, role)
	}
	return nil
}

// RegisterRunner admits a runner and hands it the evaluator roster.
func (s *Service) RegisterRunner(ctx context.Context, req *pb.RegisterRunnerRequest) (*pb.RegisterRunnerResponse, error) {
	if req == nil {
		return nil, status.Errorf(codes.InvalidArgument, "request cannot be nil")
	}
	if err := s.checkRunner(req.RunnerID); err != nil {
		return nil, err
	}

	requestID := middleware.GetRequestID(ctx)
	log.Printf("[%s] runner %s registered", requestID, req.RunnerID)

	return &pb.RegisterRunnerResponse{
		Accepted:            true,
		EvaluatorAddrs:      s.loadedEvaluatorAddrs(),
		PollIntervalSeconds: int32(s.pollInterval / time.Second),
	}, nil
}

// PollTrajectory leases the next pending trajectory to the caller.
func (s *Service) PollTrajectory(ctx context.Context, req *pb.PollTrajectoryRequest) (*pb.PollTrajectoryResponse, error) {
	if req == nil {
		return nil, status.Errorf(codes.InvalidArgument, "request cannot be nil")
	}
	if err := s.checkRunner(req.RunnerID); err != nil {
		return nil, err
	}

	t := s.disp.Next(req.RunnerID)
	if t == nil {
		return &pb.PollTrajectoryResponse{Assigned: false}, nil
	}

	return &pb.PollTrajectoryResponse{
		Assigned: true,
		Trajectory: &pb.TrajectorySpec{
			TrajectoryID: t.ID,
			Attempt:      int32(t.Attempt),
			Seed:         t.Seed,
			Steps:        t.Params.Steps,
			Timestep:     t.Params.Timestep,
			Friction:     t.Params.Friction,
			Temperature:  t.Params.Temperature,
			Initial:      t.Initial.ToWire(),
		},
	}, nil
}

// ReportTrajectory records an attempt outcome.
func (s *Service) ReportTrajectory(ctx context.Context, req *pb.ReportTrajectoryRequest) (*pb.ReportTrajectoryResponse, error) {
	if req == nil {
		return nil, status.Errorf(codes.InvalidArgument, "request cannot be nil")
	}
	if err := s.checkRunner(req.RunnerID); err != nil {
		return nil, err
	}

	err := s.disp.Report(req.RunnerID, req.TrajectoryID, int(req.Attempt), req.Succeeded, req.Error, req.FinalEnergy)
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "report rejected: %v", err)
	}
	return &pb.ReportTrajectoryResponse{Accepted: true}, nil
}

// SubmitEnsemble adds count trajectories using the dispatcher's configured
// initial conditions.
func (s *Service) SubmitEnsemble(ctx context.Context, req *pb.SubmitEnsembleRequest) (*pb.SubmitEnsembleResponse, error) {
	if req == nil || req.Count <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "count must be positive")
	}

	ids := s.disp.CreateEnsemble(int(req.Count), s.init)
	requestID := middleware.GetRequestID(ctx)
	log.Printf("[%s] submitted ensemble of %d trajectories", requestID, len(ids))

	return &pb.SubmitEnsembleResponse{Created: int32(len(ids))}, nil
}

// Status reports registry counts and the evaluator roster.
func (s *Service) Status(ctx context.Context, req *pb.StatusRequest) (*pb.StatusResponse, error) {
	counts := s.disp.Counts()

	s.mu.RLock()
	evs := make([]pb.EvaluatorStatus, len(s.evaluators))
	copy(evs, s.evaluators)
	s.mu.RUnlock()

	return &pb.StatusResponse{
		Pending:    int32(counts[StatusPending]),
		Running:    int32(counts[StatusRunning]),
		Succeeded:  int32(counts[StatusSucceeded]),
		Failed:     int32(counts[StatusFailed]),
		Runners:    int32(s.disp.RunnerCount()),
		Evaluators: evs,
	}, nil
}
