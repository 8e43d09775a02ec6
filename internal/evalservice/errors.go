// internal/evalservice/errors.go
package evalservice

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mdfleet/mdfleet/internal/batch"
)

// grpcError maps known internal errors to appropriate gRPC status errors
func grpcError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, batch.ErrSessionClosed) {
		return status.Errorf(codes.Unavailable, "evaluator is shutting down")
	}

	var evalErr *batch.EvaluationError
	if errors.As(err, &evalErr) {
		// The message carries the whole batch's sequence numbers so a
		// requester can see which siblings failed with it.
		inner := evalErr.Unwrap()
		switch {
		case containsAny(inner, "unknown species", "has wrong size", "atoms, expected"):
			return status.Errorf(codes.InvalidArgument, "batch rejected: %v", evalErr)
		case containsAny(inner, "out of memory", "OOM"):
			return status.Errorf(codes.ResourceExhausted, "evaluator out of memory: %v", evalErr)
		default:
			return status.Errorf(codes.Internal, "batch evaluation failed: %v", evalErr)
		}
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "empty structure batch"):
		return status.Errorf(codes.InvalidArgument, "empty structure batch")

	case strings.Contains(errMsg, "session is nil"):
		return status.Errorf(codes.FailedPrecondition, "inference engine not initialized")

	case strings.Contains(errMsg, "failed to create input tensor"),
		strings.Contains(errMsg, "failed to create output tensor"):
		return status.Errorf(codes.Internal, "tensor creation failed: %v", err)

	case strings.Contains(errMsg, "inference failed"):
		return status.Errorf(codes.Internal, "inference execution failed: %v", err)

	case strings.Contains(errMsg, "failed to initialize"):
		return status.Errorf(codes.FailedPrecondition, "initialization failed: %v", err)

	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func containsAny(err error, subs ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range subs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// invalidArgumentError creates an InvalidArgument gRPC error
func invalidArgumentError(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// failedPreconditionError creates a FailedPrecondition gRPC error
func failedPreconditionError(format string, args ...interface{}) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}
