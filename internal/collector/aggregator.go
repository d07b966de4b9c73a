// Package collector aggregates unit outcomes and computes metrics.
package collector

import (
	"sync"
	"time"

	"volley/internal/core"
)

// Aggregator owns the counters of a session.
// Record is meant to be driven by a single goroutine; Snapshot and Metrics
// may be read concurrently, e.g. by a progress renderer.
type Aggregator struct {
	mu          sync.Mutex
	total       int
	succeeded   int
	failed      int
	rateLimited int
	aborted     bool
	durations   []time.Duration
	errors      map[string]int
	observers   []core.Observer
}

// NewAggregator creates an Aggregator for a session of total units.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		total:     total,
		durations: make([]time.Duration, 0, total),
		errors:    make(map[string]int),
	}
}

// Subscribe registers an observer that receives a Snapshot after every
// recorded outcome. Observers run synchronously on the recording goroutine.
func (a *Aggregator) Subscribe(o core.Observer) {
	if o == nil {
		return
	}
	a.mu.Lock()
	a.observers = append(a.observers, o)
	a.mu.Unlock()
}

// Record classifies one settled unit.
// Success and Failure bump exactly one counter. RateLimited bumps neither
// and returns StopEarly; the aggregator stays aborted from then on. Any other
// outcome value is recorded as a Failure.
func (a *Aggregator) Record(s core.Settled) core.Signal {
	a.mu.Lock()
	switch s.Outcome {
	case core.Success:
		a.succeeded++
		a.durations = append(a.durations, s.Duration)
	case core.Failure:
		a.failed++
		a.durations = append(a.durations, s.Duration)
		if s.Error != "" {
			a.errors[s.Error]++
		}
	case core.RateLimited:
		a.rateLimited++
		a.aborted = true
	default:
		a.failed++
		a.durations = append(a.durations, s.Duration)
		msg := s.Error
		if msg == "" {
			msg = "unknown " + s.Outcome.String()
		}
		a.errors[msg]++
	}
	signal := core.Continue
	if a.aborted {
		signal = core.StopEarly
	}
	snap := a.snapshotLocked()
	observers := a.observers
	a.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return signal
}

// Snapshot returns the current progress.
func (a *Aggregator) Snapshot() core.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Completed: a.succeeded + a.failed,
		Succeeded: a.succeeded,
		Failed:    a.failed,
		Total:     a.total,
	}
}

// Aborted reports whether a RateLimited outcome has been recorded.
func (a *Aggregator) Aborted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

// Metrics computes a summary of everything recorded so far.
func (a *Aggregator) Metrics(elapsed time.Duration) *Metrics {
	a.mu.Lock()
	durations := make([]time.Duration, len(a.durations))
	copy(durations, a.durations)
	errors := make(map[string]int, len(a.errors))
	for k, v := range a.errors {
		errors[k] = v
	}
	snap := a.snapshotLocked()
	rateLimited := a.rateLimited
	a.mu.Unlock()

	return ComputeMetrics(snap, rateLimited, durations, errors, elapsed)
}
