// cmd/runner/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mdfleet/mdfleet/internal/config"
	"github.com/mdfleet/mdfleet/internal/middleware"
	"github.com/mdfleet/mdfleet/internal/runner"
	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (optional)")
	runnerID := flag.String("id", "", "Runner worker ID (overrides config)")
	dispatcherAddr := flag.String("dispatcher", "", "Dispatcher address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadRunner(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *runnerID != "" {
		cfg.RunnerID = *runnerID
	}
	if *dispatcherAddr != "" {
		cfg.DispatcherAddr = *dispatcherAddr
	}
	if cfg.RunnerID == "" {
		// Anonymous runners are useful on a dev box; the pool manifest must
		// still know the ID, so log it prominently.
		cfg.RunnerID = "runner-" + uuid.New().String()[:8]
		log.Printf("No runner_id configured, generated %s", cfg.RunnerID)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting runner %s (dispatcher %s)", cfg.RunnerID, cfg.DispatcherAddr)

	conn, err := grpc.NewClient(cfg.DispatcherAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(middleware.UnaryClientRequestIDInterceptor()),
		pb.DialOption(),
	)
	if err != nil {
		log.Fatalf("Failed to connect to dispatcher: %v", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent := runner.New(
		cfg.RunnerID,
		pb.NewDispatcherClient(conn),
		runner.DefaultProxyFactory,
		time.Duration(cfg.PollIntervalS)*time.Second,
	)

	if err := agent.Run(ctx); err != nil {
		log.Fatalf("Runner stopped with error: %v", err)
	}
	log.Printf("Runner %s shut down", cfg.RunnerID)
}
