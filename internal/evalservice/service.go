// internal/evalservice/service.go
package evalservice

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mdfleet/mdfleet/internal/batch"
	"github.com/mdfleet/mdfleet/internal/cache"
	"github.com/mdfleet/mdfleet/internal/metrics"
	"github.com/mdfleet/mdfleet/internal/middleware"
	"github.com/mdfleet/mdfleet/internal/potential"
	"github.com/mdfleet/mdfleet/internal/structure"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

const cacheTTL = 6 * time.Hour

// EngineFactory builds an engine from a local model path. Production wires
// potential.NewONNX; tests substitute the mock.
type EngineFactory func(modelPath string) (potential.Engine, error)

// ModelFetcher resolves a model URI to a local file path, downloading if the
// URI points at object storage.
type ModelFetcher func(ctx context.Context, uri string) (string, error)

// Service implements the Evaluator gRPC service. The model engine and the
// batch session exist only after a successful LoadModel; Evaluate fails with
// FailedPrecondition until then.
type Service struct {
	pb.UnimplementedEvaluatorServer

	newEngine EngineFactory
	fetch     ModelFetcher
	cache     *cache.Cache
	window    time.Duration

	mu      sync.RWMutex
	engine  potential.Engine
	session *batch.Session
}

// New creates an evaluator service. cache may be nil to disable caching;
// fetch may be nil when models are always local paths.
func New(newEngine EngineFactory, fetch ModelFetcher, c *cache.Cache, window time.Duration) *Service {
	return &Service{
		newEngine: newEngine,
		fetch:     fetch,
		cache:     c,
		window:    window,
	}
}

// LoadModel handles the dispatcher's bootstrap instruction. Load failures are
// reported in the response rather than hanging or crashing the process.
func (s *Service) LoadModel(ctx context.Context, req *pb.LoadModelRequest) (*pb.LoadModelResponse, error) {
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}
	if req.ModelURI == "" {
		return &pb.LoadModelResponse{Ok: false, Message: "model_uri is required"}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return &pb.LoadModelResponse{Ok: true, Message: "model already loaded"}, nil
	}

	path := req.ModelURI
	if s.fetch != nil {
		var err error
		path, err = s.fetch(ctx, req.ModelURI)
		if err != nil {
			log.Printf("model fetch failed for %s: %v", req.ModelURI, err)
			return &pb.LoadModelResponse{Ok: false, Message: "model fetch failed: " + err.Error()}, nil
		}
	}

	engine, err := s.newEngine(path)
	if err != nil {
		log.Printf("model load failed for %s: %v", path, err)
		return &pb.LoadModelResponse{Ok: false, Message: "model load failed: " + err.Error()}, nil
	}

	s.engine = engine
	s.session = batch.NewSession(engine, batch.Options{
		MaxSize: int(req.BatchMax),
		Window:  s.window,
	})
	log.Printf("model %s loaded (batch_max=%d, device=%s, precision=%s)",
		req.ModelURI, req.BatchMax, req.Device, req.Precision)

	return &pb.LoadModelResponse{Ok: true}, nil
}

// Evaluate services one evaluation request: cache first, then the batching
// session. The response echoes the request's sequence number.
func (s *Service) Evaluate(ctx context.Context, req *pb.EvaluateRequest) (*pb.EvaluateResponse, error) {
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	s.mu.RLock()
	engine := s.engine
	session := s.session
	s.mu.RUnlock()

	if engine == nil || session == nil {
		return nil, failedPreconditionError("model not loaded")
	}

	str, err := structure.FromWire(req.Structure)
	if err != nil {
		return nil, invalidArgumentError("bad structure: %v", err)
	}

	requestID := middleware.GetRequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}

	if s.cache != nil {
		hash := str.Hash()
		if res, ok, cerr := s.cache.GetResult(ctx, engine.ModelID(), hash); cerr == nil && ok {
			metrics.RecordCacheHit()
			return &pb.EvaluateResponse{Seq: req.Seq, Energy: res.Energy, Forces: res.Forces}, nil
		}
	}

	start := time.Now()
	res, err := session.Submit(ctx, req.RunnerID, req.Seq, str)
	if err != nil {
		log.Printf("[%s] evaluation error for runner=%s seq=%d: %v", requestID, req.RunnerID, req.Seq, err)
		return nil, grpcError(err)
	}

	if s.cache != nil {
		if cerr := s.cache.SetResult(ctx, engine.ModelID(), str.Hash(), res, cacheTTL); cerr != nil {
			log.Printf("[%s] cache write failed: %v", requestID, cerr)
		}
	}

	log.Printf("[%s] Evaluate: runner=%s seq=%d atoms=%d total_ms=%.2f",
		requestID, req.RunnerID, req.Seq, str.NumAtoms(),
		float64(time.Since(start).Microseconds())/1000.0)

	return &pb.EvaluateResponse{Seq: req.Seq, Energy: res.Energy, Forces: res.Forces}, nil
}

// Close drains the session and releases the engine.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Shutdown()
		s.session = nil
	}
	if s.engine != nil {
		err := s.engine.Close()
		s.engine = nil
		return err
	}
	return nil
}
