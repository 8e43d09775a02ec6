// Package dispatch owns the trajectory registry and retry bookkeeping. The
// dispatcher is the only writer of trajectory state; runners report outcomes
// through the service layer and never touch retry state directly.
package dispatch

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mdfleet/mdfleet/internal/metrics"
	"github.com/mdfleet/mdfleet/internal/structure"
)

// Trajectory states. Succeeded and failed are terminal.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RetryPolicy is an ordered sequence of delays. A trajectory failing on
// attempt k is re-enqueued after Delays[k]; once attempts exceed the sequence
// it terminates as failed.
type RetryPolicy struct {
	Delays []time.Duration
}

// RunParams are the propagation parameters shared by every trajectory of an
// ensemble.
type RunParams struct {
	Steps       int64
	Timestep    float64
	Friction    float64
	Temperature float64
}

// Trajectory is one unit of ensemble work. Seed and Initial are fixed at
// creation and reused verbatim on every retry.
type Trajectory struct {
	ID          string
	Seed        int64
	Initial     *structure.Structure
	Params      RunParams
	Status      string
	Attempt     int
	AssignedTo  string
	LastError   string
	FinalEnergy float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InitialConditions produces the seed and starting structure for the i-th
// trajectory of an ensemble. It is called exactly once per trajectory.
type InitialConditions func(index int) (*structure.Structure, int64)

// Dispatcher assigns trajectories to runners and applies the retry policy.
type Dispatcher struct {
	retry  RetryPolicy
	params RunParams

	mu           sync.RWMutex
	trajectories map[string]*Trajectory
	queue        []string // FIFO of pending trajectory IDs
	runners      map[string]time.Time
	created      int
}

// New creates an empty dispatcher.
func New(retry RetryPolicy, params RunParams) *Dispatcher {
	return &Dispatcher{
		retry:        retry,
		params:       params,
		trajectories: make(map[string]*Trajectory),
		runners:      make(map[string]time.Time),
	}
}

// CreateEnsemble registers count new trajectories and enqueues them.
func (d *Dispatcher) CreateEnsemble(count int, init InitialConditions) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		initial, seed := init(d.created + i)
		t := &Trajectory{
			ID:        uuid.New().String(),
			Seed:      seed,
			Initial:   initial,
			Params:    d.params,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.trajectories[t.ID] = t
		d.queue = append(d.queue, t.ID)
		ids = append(ids, t.ID)
	}
	d.created += count
	d.publishCounts()
	return ids
}

// Next pops the head of the pending queue and leases it to the runner.
// Returns nil when no work is pending.
func (d *Dispatcher) Next(runnerID string) *Trajectory {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.runners[runnerID] = time.Now()
	for len(d.queue) > 0 {
		id := d.queue[0]
		d.queue = d.queue[1:]
		t, ok := d.trajectories[id]
		if !ok || t.Status != StatusPending {
			continue
		}
		t.Status = StatusRunning
		t.AssignedTo = runnerID
		t.UpdatedAt = time.Now()
		d.publishCounts()
		return t.snapshot()
	}
	return nil
}

// Report records a runner's outcome for one attempt. Failures inside the
// retry budget schedule a re-enqueue after the policy's delay for that
// attempt, replaying the same seed and initial structure. Stale reports
// (wrong attempt, wrong runner, or a trajectory not running) are rejected so
// a trajectory can never leave its terminal state.
func (d *Dispatcher) Report(runnerID, trajectoryID string, attempt int, succeeded bool, errMsg string, finalEnergy float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.runners[runnerID] = time.Now()
	t, ok := d.trajectories[trajectoryID]
	if !ok {
		return fmt.Errorf("unknown trajectory %s", trajectoryID)
	}
	if t.Status != StatusRunning {
		return fmt.Errorf("trajectory %s is %s, not running", trajectoryID, t.Status)
	}
	if t.AssignedTo != runnerID {
		return fmt.Errorf("trajectory %s is leased to %s, not %s", trajectoryID, t.AssignedTo, runnerID)
	}
	if t.Attempt != attempt {
		return fmt.Errorf("trajectory %s report for attempt %d, current attempt is %d", trajectoryID, attempt, t.Attempt)
	}

	t.UpdatedAt = time.Now()
	t.AssignedTo = ""

	if succeeded {
		t.Status = StatusSucceeded
		t.FinalEnergy = finalEnergy
		t.LastError = ""
		d.publishCounts()
		return nil
	}

	t.LastError = errMsg
	if t.Attempt < len(d.retry.Delays) {
		delay := d.retry.Delays[t.Attempt]
		t.Attempt++
		t.Status = StatusPending
		metrics.RecordTrajectoryRetry()
		log.Printf("trajectory %s attempt %d failed (%s); retrying in %s", trajectoryID, attempt, errMsg, delay)
		// The queue re-insert waits out the policy delay off the lock.
		time.AfterFunc(delay, func() {
			d.enqueue(trajectoryID)
		})
		d.publishCounts()
		return nil
	}

	t.Status = StatusFailed
	log.Printf("trajectory %s failed after %d attempts, retries exhausted: %s", trajectoryID, attempt+1, errMsg)
	d.publishCounts()
	return nil
}

func (d *Dispatcher) enqueue(trajectoryID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.trajectories[trajectoryID]
	if !ok || t.Status != StatusPending {
		return
	}
	d.queue = append(d.queue, trajectoryID)
}

// Get returns a snapshot of one trajectory.
func (d *Dispatcher) Get(trajectoryID string) (*Trajectory, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.trajectories[trajectoryID]
	if !ok {
		return nil, false
	}
	return t.snapshot(), true
}

// Counts returns the number of trajectories per state.
func (d *Dispatcher) Counts() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.countsLocked()
}

// RunnerCount returns how many distinct runners have checked in.
func (d *Dispatcher) RunnerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.runners)
}

// Done reports whether every trajectory has reached a terminal state.
func (d *Dispatcher) Done() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, t := range d.trajectories {
		if t.Status != StatusSucceeded && t.Status != StatusFailed {
			return false
		}
	}
	return len(d.trajectories) > 0
}

func (d *Dispatcher) countsLocked() map[string]int {
	counts := map[string]int{
		StatusPending:   0,
		StatusRunning:   0,
		StatusSucceeded: 0,
		StatusFailed:    0,
	}
	for _, t := range d.trajectories {
		counts[t.Status]++
	}
	return counts
}

func (d *Dispatcher) publishCounts() {
	for state, n := range d.countsLocked() {
		metrics.SetTrajectoryState(state, n)
	}
}

func (t *Trajectory) snapshot() *Trajectory {
	cp := *t
	cp.Initial = t.Initial.Clone()
	return &cp
}
