// Package proxy gives runner code a local-looking model evaluation call that
// is actually a remote dispatch to an evaluator session. A runner drives one
// trajectory sequentially, so each proxy has at most one request outstanding
// by construction.
package proxy

import (
	"context"
	"fmt"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/mdfleet/mdfleet/internal/middleware"
	"github.com/mdfleet/mdfleet/internal/potential"
	"github.com/mdfleet/mdfleet/internal/structure"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// Proxy fans evaluation calls out over a fixed evaluator list, round-robin.
type Proxy struct {
	runnerID string
	clients  []pb.EvaluatorClient
	conns    []*grpc.ClientConn
	next     uint32
	seq      uint64
}

// Dial connects to every evaluator address and returns a ready proxy.
func Dial(runnerID string, addrs []string) (*Proxy, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no evaluator addresses")
	}

	p := &Proxy{runnerID: runnerID}
	for _, addr := range addrs {
		conn, err := grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUnaryInterceptor(middleware.UnaryClientRequestIDInterceptor()),
			pb.DialOption(),
		)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to connect to evaluator %s: %w", addr, err)
		}
		p.conns = append(p.conns, conn)
		p.clients = append(p.clients, pb.NewEvaluatorClient(conn))
	}
	return p, nil
}

// NewWithClients builds a proxy over pre-made clients, for tests.
func NewWithClients(runnerID string, clients []pb.EvaluatorClient) *Proxy {
	return &Proxy{runnerID: runnerID, clients: clients}
}

// Evaluate sends one structure to the next evaluator and blocks until the
// matching result or error arrives. The response must echo the request's
// sequence number; a mismatch means the pairing broke and is an error even if
// a result came back.
func (p *Proxy) Evaluate(ctx context.Context, s *structure.Structure) (potential.Result, error) {
	if err := s.Validate(); err != nil {
		return potential.Result{}, fmt.Errorf("invalid structure: %w", err)
	}

	seq := atomic.AddUint64(&p.seq, 1)
	idx := (atomic.AddUint32(&p.next, 1) - 1) % uint32(len(p.clients))
	client := p.clients[idx]

	resp, err := client.Evaluate(ctx, &pb.EvaluateRequest{
		RunnerID:  p.runnerID,
		Seq:       seq,
		Structure: s.ToWire(),
	})
	if err != nil {
		if st, ok := status.FromError(err); ok {
			return potential.Result{}, fmt.Errorf("evaluation failed (%s): %s", st.Code(), st.Message())
		}
		return potential.Result{}, fmt.Errorf("evaluation failed: %w", err)
	}

	if resp.Seq != seq {
		return potential.Result{}, fmt.Errorf("sequence mismatch: sent %d, got result for %d", seq, resp.Seq)
	}
	if len(resp.Forces) != len(s.Positions) {
		return potential.Result{}, fmt.Errorf("forces length %d does not match positions length %d", len(resp.Forces), len(s.Positions))
	}

	return potential.Result{Energy: resp.Energy, Forces: resp.Forces}, nil
}

// Close tears down all evaluator connections.
func (p *Proxy) Close() error {
	var first error
	for _, c := range p.conns {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
