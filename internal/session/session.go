// Package session runs one volley of work units from start to finish.
//
// A Session ties a batch.Scheduler, a dispatch.Dispatcher and a
// collector.Aggregator together: it asks the scheduler for the next batch
// size, runs that batch to completion, and stops when nothing remains or
// the endpoint reports that it is rate limiting.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"volley/internal/batch"
	"volley/internal/collector"
	"volley/internal/core"
	"volley/internal/dispatch"
)

var (
	// ErrCanceled is returned when the context is done before Start.
	ErrCanceled = errors.New("session canceled before start")
	// ErrAlreadyStarted is returned by every Start call after the first.
	ErrAlreadyStarted = errors.New("session already started")
)

// ConfigError describes one invalid session parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Params are the immutable inputs of a session.
type Params struct {
	// Target describes what is being exercised. It is only used for display.
	Target   string
	Count    int
	Workers  int
	Delay    time.Duration
	Provider core.Provider
}

// Validate reports every invalid parameter as a *ConfigError.
// A Workers value above batch.MaxWorkers is accepted and clamped later.
func (p Params) Validate() error {
	var errs []error
	if p.Count <= 0 {
		errs = append(errs, &ConfigError{Field: "count", Reason: fmt.Sprintf("must be > 0, got %d", p.Count)})
	}
	if p.Workers < batch.MinWorkers {
		errs = append(errs, &ConfigError{Field: "workers", Reason: fmt.Sprintf("must be >= %d, got %d", batch.MinWorkers, p.Workers)})
	}
	if p.Delay < 0 {
		errs = append(errs, &ConfigError{Field: "delay", Reason: fmt.Sprintf("must not be negative, got %v", p.Delay)})
	}
	if p.Provider == nil {
		errs = append(errs, &ConfigError{Field: "provider", Reason: "must be set"})
	}
	return errors.Join(errs...)
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the real clock (for testing).
func WithClock(c core.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithObserver registers a progress observer before the session starts.
func WithObserver(o core.Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// Session is the orchestrator for a single run.
// States move Configured -> Running -> Completed or Aborted, once.
type Session struct {
	id        string
	params    Params
	clock     core.Clock
	observers []core.Observer

	scheduler  *batch.Scheduler
	dispatcher *dispatch.Dispatcher
	agg        *collector.Aggregator

	mu      sync.Mutex
	state   core.State
	started time.Time
	batches []int
	result  *core.Result
}

// New validates p and returns a Session in the Configured state.
func New(p Params, opts ...Option) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		params: p,
		clock:  core.RealClock{},
		state:  core.Configured,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}

	s.scheduler = batch.NewScheduler(p.Workers)
	s.dispatcher = dispatch.NewDispatcherWithClock(p.Provider, s.scheduler.Workers(), s.clock)
	s.agg = collector.NewAggregator(p.Count)
	for _, o := range s.observers {
		s.agg.Subscribe(o)
	}
	return s, nil
}

// ID returns the session identifier, generated when none was given.
func (s *Session) ID() string { return s.id }

// Params returns the parameters the session was created with.
func (s *Session) Params() Params { return s.params }

// Workers returns the effective worker budget after clamping.
func (s *Session) Workers() int { return s.scheduler.Workers() }

// State returns the current lifecycle state.
func (s *Session) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnProgress registers an observer that receives a Snapshot after every
// recorded outcome. Observers run on the session goroutine and should be fast.
func (s *Session) OnProgress(o core.Observer) {
	s.agg.Subscribe(o)
}

// Snapshot returns the current progress. Safe to call from any goroutine.
func (s *Session) Snapshot() core.Snapshot {
	return s.agg.Snapshot()
}

// Batches returns the sizes of the batches scheduled so far.
func (s *Session) Batches() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.batches))
	copy(out, s.batches)
	return out
}

// Elapsed returns the run time so far, or the final run time once finished.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.result.Elapsed
	}
	if s.started.IsZero() {
		return 0
	}
	return s.clock.Since(s.started)
}

// Metrics summarizes everything recorded so far.
func (s *Session) Metrics() *collector.Metrics {
	return s.agg.Metrics(s.Elapsed())
}

// Start runs the session to completion and returns its result.
//
// If ctx is already done, nothing is sent and ErrCanceled is returned along
// with an Aborted result. If ctx is canceled mid-run, units already
// submitted finish, no new batch is scheduled and the result carries
// ReasonCanceled with a nil error.
func (s *Session) Start(ctx context.Context) (core.Result, error) {
	s.mu.Lock()
	if s.state != core.Configured {
		s.mu.Unlock()
		return core.Result{}, ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		s.state = core.Aborted
		s.result = &core.Result{
			ID:              s.id,
			Total:           s.params.Count,
			TerminatedEarly: true,
			Reason:          core.ReasonCanceled,
		}
		res := *s.result
		s.mu.Unlock()
		return res, fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	s.state = core.Running
	s.started = s.clock.Now()
	s.mu.Unlock()

	ctx = core.ContextWithSession(ctx, s.id)
	handle := s.handler(ctx)

	reason := core.ReasonCompleted
	for {
		size := s.scheduler.Next(s.agg.Snapshot().Remaining())
		if size == 0 {
			break
		}
		if ctx.Err() != nil {
			reason = core.ReasonCanceled
			break
		}

		s.mu.Lock()
		s.batches = append(s.batches, size)
		s.mu.Unlock()

		settled := s.dispatcher.Run(ctx, size, handle)

		if s.agg.Aborted() {
			reason = core.ReasonRateLimited
			break
		}
		if ctx.Err() != nil && len(settled) < size {
			reason = core.ReasonCanceled
			break
		}
	}

	return s.finish(reason), nil
}

// handler records each settled unit and then applies the inter-request
// delay on the session goroutine, so the delay paces how fast outcomes are
// consumed rather than each worker's own call.
func (s *Session) handler(ctx context.Context) dispatch.Handler {
	return func(u core.Settled) core.Signal {
		sig := s.agg.Record(u)
		if sig == core.Continue && s.params.Delay > 0 {
			_ = s.clock.Sleep(ctx, s.params.Delay) // canceled sleeps end the run via ctx
		}
		return sig
	}
}

func (s *Session) finish(reason core.Reason) core.Result {
	snap := s.agg.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = core.Completed
	if reason != core.ReasonCompleted {
		s.state = core.Aborted
	}
	s.result = &core.Result{
		ID:              s.id,
		Succeeded:       snap.Succeeded,
		Failed:          snap.Failed,
		Total:           snap.Total,
		Elapsed:         s.clock.Since(s.started),
		TerminatedEarly: reason != core.ReasonCompleted,
		Reason:          reason,
	}
	return *s.result
}

// Result returns the final result and true once the session has ended.
func (s *Session) Result() (core.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return core.Result{}, false
	}
	return *s.result, true
}
