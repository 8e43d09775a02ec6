// internal/proxy/proxy_test.go
package proxy

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mdfleet/mdfleet/internal/structure"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// fakeEvaluator answers Evaluate in-process, echoing the sequence number
// unless told to misbehave.
type fakeEvaluator struct {
	calls     int32
	energy    float64
	err       error
	mangleSeq bool
	dropForce bool
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, in *pb.EvaluateRequest, opts ...grpc.CallOption) (*pb.EvaluateResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	seq := in.Seq
	if f.mangleSeq {
		seq += 7
	}
	forces := make([]float32, len(in.Structure.Positions))
	if f.dropForce {
		forces = forces[:len(forces)-1]
	}
	return &pb.EvaluateResponse{Seq: seq, Energy: f.energy, Forces: forces}, nil
}

func (f *fakeEvaluator) LoadModel(ctx context.Context, in *pb.LoadModelRequest, opts ...grpc.CallOption) (*pb.LoadModelResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "not used")
}

func testStructure() *structure.Structure {
	return &structure.Structure{
		Positions: []float32{1, 2, 3},
		Species:   []string{"Cu"},
	}
}

func TestEvaluateRoundTrip(t *testing.T) {
	fake := &fakeEvaluator{energy: -4.2}
	p := NewWithClients("run-0", []pb.EvaluatorClient{fake})

	res, err := p.Evaluate(context.Background(), testStructure())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Energy != -4.2 {
		t.Errorf("Energy = %f, expected -4.2", res.Energy)
	}
	if len(res.Forces) != 3 {
		t.Errorf("Forces length = %d, expected 3", len(res.Forces))
	}
}

func TestEvaluateRejectsSequenceMismatch(t *testing.T) {
	fake := &fakeEvaluator{mangleSeq: true}
	p := NewWithClients("run-0", []pb.EvaluatorClient{fake})

	_, err := p.Evaluate(context.Background(), testStructure())
	if err == nil {
		t.Fatal("Expected error for sequence mismatch")
	}
	if !strings.Contains(err.Error(), "sequence mismatch") {
		t.Errorf("Error = %q, expected sequence mismatch", err.Error())
	}
}

func TestEvaluateRejectsShortForces(t *testing.T) {
	fake := &fakeEvaluator{dropForce: true}
	p := NewWithClients("run-0", []pb.EvaluatorClient{fake})

	if _, err := p.Evaluate(context.Background(), testStructure()); err == nil {
		t.Error("Expected error for truncated forces")
	}
}

func TestEvaluateRoundRobinDistribution(t *testing.T) {
	fakes := []*fakeEvaluator{{}, {}, {}}
	clients := make([]pb.EvaluatorClient, len(fakes))
	for i, f := range fakes {
		clients[i] = f
	}
	p := NewWithClients("run-0", clients)

	const n = 9
	for i := 0; i < n; i++ {
		if _, err := p.Evaluate(context.Background(), testStructure()); err != nil {
			t.Fatalf("Evaluate %d failed: %v", i, err)
		}
	}

	for i, f := range fakes {
		if f.calls != n/3 {
			t.Errorf("Evaluator %d handled %d calls, expected %d", i, f.calls, n/3)
		}
	}
}

func TestEvaluateMapsStatusErrors(t *testing.T) {
	fake := &fakeEvaluator{err: status.Errorf(codes.FailedPrecondition, "no model loaded")}
	p := NewWithClients("run-0", []pb.EvaluatorClient{fake})

	_, err := p.Evaluate(context.Background(), testStructure())
	if err == nil {
		t.Fatal("Expected error from failing evaluator")
	}
	if !strings.Contains(err.Error(), "FailedPrecondition") || !strings.Contains(err.Error(), "no model loaded") {
		t.Errorf("Error = %q, expected code and message", err.Error())
	}
}

func TestEvaluateValidatesStructure(t *testing.T) {
	fake := &fakeEvaluator{}
	p := NewWithClients("run-0", []pb.EvaluatorClient{fake})

	bad := &structure.Structure{Positions: []float32{1, 2}, Species: []string{"Cu"}}
	if _, err := p.Evaluate(context.Background(), bad); err == nil {
		t.Error("Expected error for invalid structure")
	}
	if fake.calls != 0 {
		t.Errorf("Invalid structure reached the evaluator (%d calls)", fake.calls)
	}
}
