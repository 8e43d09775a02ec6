// Package runner implements the runner worker: register with the dispatcher,
// poll for trajectory assignments, propagate them step by step through the
// remote model proxy, and report each attempt's outcome.
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mdfleet/mdfleet/internal/dynamics"
	"github.com/mdfleet/mdfleet/internal/proxy"
	"github.com/mdfleet/mdfleet/internal/structure"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// EvaluatorProxy is what the agent needs from the remote model proxy.
type EvaluatorProxy interface {
	dynamics.Evaluator
	Close() error
}

// ProxyFactory builds the evaluation proxy from the evaluator roster the
// dispatcher hands out at registration. Tests substitute a local fake.
type ProxyFactory func(runnerID string, addrs []string) (EvaluatorProxy, error)

// DefaultProxyFactory dials real evaluator connections.
func DefaultProxyFactory(runnerID string, addrs []string) (EvaluatorProxy, error) {
	return proxy.Dial(runnerID, addrs)
}

// Agent is one runner worker.
type Agent struct {
	runnerID     string
	dispatcher   pb.DispatcherClient
	newProxy     ProxyFactory
	pollInterval time.Duration
}

// New creates an agent. pollInterval is a fallback; the dispatcher's
// registration response takes precedence when set.
func New(runnerID string, dispatcher pb.DispatcherClient, newProxy ProxyFactory, pollInterval time.Duration) *Agent {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Agent{
		runnerID:     runnerID,
		dispatcher:   dispatcher,
		newProxy:     newProxy,
		pollInterval: pollInterval,
	}
}

// Run registers, then polls and executes assignments until the context is
// canceled. A trajectory in flight finishes its current step before the
// agent tears down, so no evaluator-side batch member is orphaned.
func (a *Agent) Run(ctx context.Context) error {
	reg, err := a.dispatcher.RegisterRunner(ctx, &pb.RegisterRunnerRequest{RunnerID: a.runnerID})
	if err != nil {
		return fmt.Errorf("failed to register runner: %w", err)
	}
	if !reg.Accepted {
		return fmt.Errorf("dispatcher rejected runner %s", a.runnerID)
	}
	if reg.PollIntervalSeconds > 0 {
		a.pollInterval = time.Duration(reg.PollIntervalSeconds) * time.Second
	}
	if len(reg.EvaluatorAddrs) == 0 {
		return fmt.Errorf("dispatcher returned no evaluators")
	}

	evalProxy, err := a.newProxy(a.runnerID, reg.EvaluatorAddrs)
	if err != nil {
		return fmt.Errorf("failed to connect to evaluators: %w", err)
	}
	defer evalProxy.Close()

	log.Printf("runner %s registered, %d evaluators, polling every %s",
		a.runnerID, len(reg.EvaluatorAddrs), a.pollInterval)

	for {
		resp, err := a.dispatcher.PollTrajectory(ctx, &pb.PollTrajectoryRequest{RunnerID: a.runnerID})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("poll failed: %v", err)
		} else if resp.Assigned {
			a.execute(ctx, resp.Trajectory, evalProxy)
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.pollInterval):
		}
	}
}

// execute runs one trajectory attempt and reports the outcome. Any step
// error fails the whole attempt; the dispatcher decides whether to retry.
func (a *Agent) execute(ctx context.Context, spec *pb.TrajectorySpec, eval dynamics.Evaluator) {
	finalEnergy, stepsDone, runErr := a.propagate(ctx, spec, eval)

	report := &pb.ReportTrajectoryRequest{
		RunnerID:     a.runnerID,
		TrajectoryID: spec.TrajectoryID,
		Attempt:      spec.Attempt,
		Succeeded:    runErr == nil,
		FinalEnergy:  finalEnergy,
		StepsDone:    stepsDone,
	}
	if runErr != nil {
		report.Error = runErr.Error()
		log.Printf("trajectory %s attempt %d failed after %d steps: %v",
			spec.TrajectoryID, spec.Attempt, stepsDone, runErr)
	} else {
		log.Printf("trajectory %s attempt %d succeeded, final energy %.6f",
			spec.TrajectoryID, spec.Attempt, finalEnergy)
	}

	// Reports use a fresh timeout so a canceled run context still delivers
	// the outcome instead of leaking a running lease.
	rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := a.dispatcher.ReportTrajectory(rctx, report); err != nil {
		log.Printf("failed to report trajectory %s: %v", spec.TrajectoryID, err)
	}
}

func (a *Agent) propagate(ctx context.Context, spec *pb.TrajectorySpec, eval dynamics.Evaluator) (float64, int64, error) {
	s, err := structure.FromWire(spec.Initial)
	if err != nil {
		return 0, 0, fmt.Errorf("bad initial structure: %w", err)
	}

	stepper, err := dynamics.NewLangevin(spec.Timestep, spec.Friction, spec.Temperature, spec.Seed)
	if err != nil {
		return 0, 0, fmt.Errorf("bad propagation parameters: %w", err)
	}

	var energy float64
	for step := int64(0); step < spec.Steps; step++ {
		if ctx.Err() != nil {
			return energy, step, fmt.Errorf("trajectory aborted: %w", ctx.Err())
		}
		energy, err = stepper.Step(ctx, s, eval)
		if err != nil {
			return energy, step, err
		}
	}
	return energy, spec.Steps, nil
}
