// Package dispatch runs batches of work units on a bounded worker pool.
package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"volley/internal/batch"
	"volley/internal/core"
)

// Handler receives each settled unit as soon as it settles.
// It always runs on the goroutine that called Run, never concurrently.
type Handler func(core.Settled) core.Signal

// Dispatcher executes batches against a Provider with at most Workers
// units in flight.
type Dispatcher struct {
	provider core.Provider
	workers  int
	clock    core.Clock
	nextUnit atomic.Int64
}

// NewDispatcher creates a Dispatcher running at most workers units at once.
func NewDispatcher(provider core.Provider, workers int) *Dispatcher {
	return NewDispatcherWithClock(provider, workers, core.RealClock{})
}

// NewDispatcherWithClock creates a Dispatcher with a custom clock (for testing).
func NewDispatcherWithClock(provider core.Provider, workers int, clock core.Clock) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		workers:  batch.ClampWorkers(workers),
		clock:    clock,
	}
}

// Workers returns the clamped worker budget.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Dispatched returns how many units have been submitted over the
// Dispatcher's lifetime.
func (d *Dispatcher) Dispatched() int {
	return int(d.nextUnit.Load())
}

// Run submits up to size units and blocks until every submitted unit has
// settled. Each settled unit is passed to handle in settlement order.
//
// Once handle returns StopEarly, or ctx is done, no further units of the
// batch are submitted; units already in flight finish undisturbed and are
// still handed to handle. The returned slice holds every settled unit.
func (d *Dispatcher) Run(ctx context.Context, size int, handle Handler) []core.Settled {
	if size <= 0 {
		return nil
	}

	results := make(chan core.Settled, size)
	var stop atomic.Bool

	go func() {
		var g errgroup.Group
		g.SetLimit(d.workers)
		for i := 0; i < size; i++ {
			if stop.Load() || ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// The slot may have been granted after the stop was raised.
				if stop.Load() || ctx.Err() != nil {
					return nil
				}
				results <- d.send(ctx, int(d.nextUnit.Add(1)))
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
		close(results)
	}()

	settled := make([]core.Settled, 0, size)
	for s := range results {
		settled = append(settled, s)
		if handle != nil && handle(s) == core.StopEarly {
			stop.Store(true)
		}
	}
	return settled
}

// send performs one unit. Provider errors, panics and unknown outcomes
// all settle as Failure. The provider sees ctx's values but not its
// cancellation: a submitted unit always runs to completion.
func (d *Dispatcher) send(ctx context.Context, unit int) (s core.Settled) {
	s.Unit = unit
	start := d.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			s.Outcome = core.Failure
			s.Error = fmt.Sprintf("panic: %v", r)
		}
		s.Duration = d.clock.Since(start)
	}()

	out, err := d.provider.Send(core.ContextWithUnit(context.WithoutCancel(ctx), unit))
	switch {
	case err != nil:
		s.Outcome = core.Failure
		s.Error = err.Error()
	case out == core.Success, out == core.Failure, out == core.RateLimited:
		s.Outcome = out
	default:
		s.Outcome = core.Failure
		s.Error = fmt.Sprintf("unknown %v", out)
	}
	return s
}
