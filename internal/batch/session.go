// Package batch implements the evaluator-side session that funnels concurrent
// evaluation requests into grouped inference calls.
//
// The session is a single loop over a mailbox channel. The first request of a
// cycle opens a bounded collection window; requests arriving inside the window
// join the same batch. The window closes when the batch hits its size cap or
// the timer fires, whichever comes first (the cap is checked on every append,
// so at capacity the batch dispatches without consulting the timer). One
// grouped inference call runs per batch and the combined output is split back
// per request in append order, with delivery keyed by sequence number.
package batch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mdfleet/mdfleet/internal/metrics"
	"github.com/mdfleet/mdfleet/internal/potential"
	"github.com/mdfleet/mdfleet/internal/structure"
)

// Session states, visible through State() for introspection.
const (
	StateIdle         = "idle"
	StateAccumulating = "accumulating"
	StateEvaluating   = "evaluating"
	StateShutdown     = "shutdown"
)

const (
	DefaultMaxSize = 32
	DefaultWindow  = 2 * time.Millisecond
)

// Options configures a Session. Window is the collection window opened by the
// first request of a cycle; a few milliseconds is enough for concurrently
// arriving requests to join while staying far below one inference call.
type Options struct {
	MaxSize int
	Window  time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	return o
}

// submission is one in-flight request inside the session. The reply channel
// is buffered so delivery never blocks the loop.
type submission struct {
	runnerID string
	seq      uint64
	str      *structure.Structure
	reply    chan outcome
}

type outcome struct {
	seq uint64
	res potential.Result
	err error
}

// Session owns the engine and the current batch exclusively; all access goes
// through Submit and Shutdown.
type Session struct {
	engine potential.Engine
	opts   Options

	mailbox chan *submission
	stop    chan struct{}
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	stateMu sync.Mutex
	state   string
}

// NewSession creates a session and starts its loop.
func NewSession(engine potential.Engine, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		engine:  engine,
		opts:    opts,
		mailbox: make(chan *submission, opts.MaxSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		state:   StateIdle,
	}
	go s.run()
	return s
}

// State reports the loop's current state.
func (s *Session) State() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st string) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Submit blocks the caller until its request resolves to exactly one result
// or error. Safe for concurrent use by many requesters.
func (s *Session) Submit(ctx context.Context, runnerID string, seq uint64, str *structure.Structure) (potential.Result, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return potential.Result{}, ErrSessionClosed
	}
	sub := &submission{
		runnerID: runnerID,
		seq:      seq,
		str:      str,
		reply:    make(chan outcome, 1),
	}
	select {
	case s.mailbox <- sub:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return potential.Result{}, ctx.Err()
	}

	// Once enqueued the request always resolves; the loop drains the mailbox
	// on shutdown, so waiting here cannot hang.
	out := <-sub.reply
	if out.err != nil {
		return potential.Result{}, out.err
	}
	return out.res, nil
}

// Shutdown stops accepting new requests, waits for the loop to drain any
// in-flight batch, and exits. Idempotent.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.stop)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	for {
		s.setState(StateIdle)
		select {
		case first := <-s.mailbox:
			group, stopping := s.accumulate(first)
			s.dispatch(group)
			if stopping {
				s.drain()
				s.setState(StateShutdown)
				return
			}
		case <-s.stop:
			s.drain()
			s.setState(StateShutdown)
			return
		}
	}
}

// accumulate collects requests into one batch, bounded by the size cap and
// the window timer. Returns the batch and whether a stop was observed.
func (s *Session) accumulate(first *submission) ([]*submission, bool) {
	s.setState(StateAccumulating)
	group := []*submission{first}
	if len(group) >= s.opts.MaxSize {
		return group, false
	}

	opened := time.Now()
	timer := time.NewTimer(s.opts.Window)
	defer timer.Stop()

	for {
		select {
		case sub := <-s.mailbox:
			group = append(group, sub)
			if len(group) >= s.opts.MaxSize {
				metrics.RecordBatchWindowWait(time.Since(opened).Seconds())
				return group, false
			}
		case <-timer.C:
			metrics.RecordBatchWindowWait(time.Since(opened).Seconds())
			return group, false
		case <-s.stop:
			metrics.RecordBatchWindowWait(time.Since(opened).Seconds())
			return group, true
		}
	}
}

// dispatch runs one grouped inference call and delivers per-request outcomes.
// An engine failure marks every request of the batch; the session survives.
func (s *Session) dispatch(group []*submission) {
	if len(group) == 0 {
		return
	}
	s.setState(StateEvaluating)
	metrics.RecordBatchSize(len(group))

	structs := make([]*structure.Structure, len(group))
	seqs := make([]uint64, len(group))
	for i, sub := range group {
		structs[i] = sub.str
		seqs[i] = sub.seq
	}

	start := time.Now()
	results, err := s.engine.EvaluateBatch(structs)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())

	if err == nil && len(results) != len(group) {
		err = &EvaluationError{
			Seqs: seqs,
			Err:  errResultCount(len(results), len(group)),
		}
	} else if err != nil {
		err = &EvaluationError{Seqs: seqs, Err: err}
	}

	if err != nil {
		metrics.RecordBatchFailure()
		log.Printf("batch of %d failed: %v", len(group), err)
		for _, sub := range group {
			sub.reply <- outcome{seq: sub.seq, err: err}
		}
		return
	}

	for i, sub := range group {
		sub.reply <- outcome{seq: sub.seq, res: results[i]}
	}
}

// drain resolves everything still buffered in the mailbox, forming batches as
// usual so nothing is orphaned by shutdown.
func (s *Session) drain() {
	for {
		var group []*submission
		for len(group) < s.opts.MaxSize {
			select {
			case sub := <-s.mailbox:
				group = append(group, sub)
			default:
				goto flush
			}
		}
	flush:
		if len(group) == 0 {
			return
		}
		s.dispatch(group)
	}
}
