// cmd/dispatcher/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mdfleet/mdfleet/internal/config"
	"github.com/mdfleet/mdfleet/internal/dispatch"
	"github.com/mdfleet/mdfleet/internal/metrics"
	"github.com/mdfleet/mdfleet/internal/middleware"
	"github.com/mdfleet/mdfleet/internal/roles"
	"github.com/mdfleet/mdfleet/internal/telemetry"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

const serviceName = "mdfleet-dispatcher"

func main() {
	configFile := flag.String("config", "", "Path to config file (optional)")
	manifest := flag.String("pool", "", "Path to worker pool manifest (overrides config)")
	flag.Parse()

	cfg, err := config.LoadDispatcher(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *manifest != "" {
		cfg.PoolManifest = *manifest
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting %s...", serviceName)
	log.Printf("Configuration: port=%d, pool=%s, model=%s, trajectories=%d, retries=%v",
		cfg.Port, cfg.PoolManifest, cfg.Model, cfg.Trajectories, cfg.RetryDelaysMS)

	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = telemetry.InitTracer(serviceName, cfg.OTELEndpoint)
		if err != nil {
			log.Printf("Warning: Failed to initialize tracer: %v", err)
		}
	}

	// Validate the role split before anything talks to the network.
	m, err := roles.LoadManifest(cfg.PoolManifest)
	if err != nil {
		log.Fatalf("Failed to load pool manifest: %v", err)
	}
	pool, err := roles.NewPool(m)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Pool validated: %d workers (%d evaluators, %d runners)",
		pool.Size(), len(pool.Evaluators()), len(pool.Runners()))

	// Broadcast the load-model instruction to every evaluator exactly once.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	roster, err := dispatch.BroadcastLoadModel(ctx, pool.Evaluators(), &pb.LoadModelRequest{
		ModelURI:  cfg.Model,
		Device:    cfg.Device,
		BatchMax:  int32(cfg.BatchMax),
		Precision: cfg.Precision,
	}, dialEvaluator)
	cancel()
	if err != nil {
		log.Fatalf("Evaluator bootstrap failed: %v", err)
	}

	disp := dispatch.New(
		dispatch.RetryPolicy{Delays: cfg.RetryDelays()},
		dispatch.RunParams{
			Steps:       cfg.Steps,
			Timestep:    cfg.Timestep,
			Friction:    cfg.Friction,
			Temperature: cfg.Temperature,
		},
	)

	init := dispatch.LatticeInitialConditions(cfg.Atoms, cfg.Species, cfg.Spacing, cfg.BaseSeed)
	if cfg.Trajectories > 0 {
		ids := disp.CreateEnsemble(cfg.Trajectories, init)
		log.Printf("Created initial ensemble of %d trajectories", len(ids))
	}

	svc := dispatch.NewService(disp, pool, init, time.Duration(cfg.PollIntervalS)*time.Second)
	svc.SetEvaluators(roster)

	healthServer := health.NewServer()
	httpServer := telemetry.StartMetricsServer(cfg.MetricsPort, healthServer)

	interceptors := []grpc.UnaryServerInterceptor{
		middleware.UnaryRequestIDInterceptor(),
		middleware.UnaryMetricsInterceptor(),
	}
	if cfg.OTELEnabled {
		interceptors = append(interceptors, otelgrpc.UnaryServerInterceptor())
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	pb.RegisterDispatcherServer(grpcServer, svc)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	metrics.SetHealthy()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down gracefully...", sig)

		healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		metrics.SetUnhealthy()

		grpcServer.GracefulStop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	log.Printf("gRPC server listening on %s", addr)
	log.Printf("%s is ready to accept requests", serviceName)

	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}

	log.Printf("Server shutdown complete")
}

func dialEvaluator(addr string) (pb.EvaluatorClient, io.Closer, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(middleware.UnaryClientRequestIDInterceptor()),
		pb.DialOption(),
	)
	if err != nil {
		return nil, nil, err
	}
	return pb.NewEvaluatorClient(conn), conn, nil
}
