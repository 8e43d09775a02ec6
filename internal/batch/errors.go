// internal/batch/errors.go
package batch

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Submit after Shutdown has begun.
var ErrSessionClosed = errors.New("evaluator session is shut down")

// EvaluationError marks every request of a failed batch. It carries the
// sequence numbers of the whole batch so requesters can see which siblings
// went down with them.
type EvaluationError struct {
	Seqs []uint64
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed for batch of %d (seqs %v): %v", len(e.Seqs), e.Seqs, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func errResultCount(got, want int) error {
	return fmt.Errorf("engine returned %d results for batch of %d", got, want)
}
