// cmd/fleetctl/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/mdfleet/mdfleet/proto/fleetpb"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fleetctl [-dispatcher addr] <command>

Commands:
  status            Show trajectory and evaluator status
  submit <count>    Submit an ensemble of <count> trajectories
`)
	os.Exit(2)
}

func main() {
	dispatcherAddr := flag.String("dispatcher", "localhost:50060", "Dispatcher address")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	conn, err := grpc.NewClient(*dispatcherAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		pb.DialOption(),
	)
	if err != nil {
		log.Fatalf("Failed to connect to dispatcher: %v", err)
	}
	defer conn.Close()

	client := pb.NewDispatcherClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch flag.Arg(0) {
	case "status":
		resp, err := client.Status(ctx, &pb.StatusRequest{})
		if err != nil {
			log.Fatalf("Status failed: %v", err)
		}
		fmt.Printf("Trajectories: pending=%d running=%d succeeded=%d failed=%d\n",
			resp.Pending, resp.Running, resp.Succeeded, resp.Failed)
		fmt.Printf("Runners seen: %d\n", resp.Runners)
		fmt.Printf("Evaluators:\n")
		for _, e := range resp.Evaluators {
			state := "model not loaded"
			if e.ModelLoaded {
				state = "ready"
			}
			fmt.Printf("  %-12s %-22s %s\n", e.ID, e.Addr, state)
		}

	case "submit":
		if flag.NArg() < 2 {
			usage()
		}
		var count int32
		if _, err := fmt.Sscanf(flag.Arg(1), "%d", &count); err != nil || count <= 0 {
			log.Fatalf("Invalid count %q", flag.Arg(1))
		}
		resp, err := client.SubmitEnsemble(ctx, &pb.SubmitEnsembleRequest{Count: count})
		if err != nil {
			log.Fatalf("Submit failed: %v", err)
		}
		fmt.Printf("Created %d trajectories\n", resp.Created)

	default:
		usage()
	}
}
