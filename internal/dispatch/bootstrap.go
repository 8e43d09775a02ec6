// internal/dispatch/bootstrap.go
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/mdfleet/mdfleet/internal/roles"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

// EvaluatorDialer opens a client to one evaluator. Injected so bootstrap is
// testable without sockets.
type EvaluatorDialer func(addr string) (pb.EvaluatorClient, io.Closer, error)

// BroadcastLoadModel sends the load instruction to every evaluator exactly
// once and returns the roster with per-evaluator load outcomes. Evaluators
// that fail to load are reported and excluded rather than retried; the caller
// decides whether the survivors are enough to proceed.
func BroadcastLoadModel(ctx context.Context, evaluators []roles.Worker, req *pb.LoadModelRequest, dial EvaluatorDialer) ([]pb.EvaluatorStatus, error) {
	roster := make([]pb.EvaluatorStatus, 0, len(evaluators))
	loaded := 0

	for _, w := range evaluators {
		st := pb.EvaluatorStatus{ID: w.ID, Addr: w.Addr}

		client, closer, err := dial(w.Addr)
		if err != nil {
			log.Printf("evaluator %s (%s): dial failed: %v", w.ID, w.Addr, err)
			roster = append(roster, st)
			continue
		}

		resp, err := client.LoadModel(ctx, req)
		closer.Close()
		if err != nil {
			log.Printf("evaluator %s (%s): model load failed: %v", w.ID, w.Addr, err)
			roster = append(roster, st)
			continue
		}
		if !resp.Ok {
			log.Printf("evaluator %s (%s): model load rejected: %s", w.ID, w.Addr, resp.Message)
			roster = append(roster, st)
			continue
		}

		st.ModelLoaded = true
		roster = append(roster, st)
		loaded++
		log.Printf("evaluator %s (%s): model loaded", w.ID, w.Addr)
	}

	if loaded == 0 {
		return roster, fmt.Errorf("no evaluator loaded the model (%d attempted)", len(evaluators))
	}
	return roster, nil
}
