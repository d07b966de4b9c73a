// Package core defines the fundamental interfaces and types for volley.
package core

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the classified result of a single work unit.
type Outcome int

const (
	Success Outcome = iota
	Failure
	// RateLimited means the endpoint will not accept further units.
	// It ends the session and is never counted.
	RateLimited
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case RateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Provider performs one remote action per call.
// Implementations must be safe for concurrent use; a returned error is
// treated as a Failure outcome.
type Provider interface {
	Send(ctx context.Context) (Outcome, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Outcome, error)

func (f ProviderFunc) Send(ctx context.Context) (Outcome, error) {
	return f(ctx)
}

// Signal tells the session whether to keep scheduling work.
type Signal int

const (
	Continue Signal = iota
	StopEarly
)

// Settled is a single finished work unit.
type Settled struct {
	Unit     int // 1-based, in submission order across the whole session
	Outcome  Outcome
	Duration time.Duration
	Error    string
}

// Snapshot is the progress of a session at one observation point.
// Succeeded + Failed == Completed <= Total always holds.
type Snapshot struct {
	Completed int `json:"completed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Remaining returns how many units are still to be scheduled.
func (s Snapshot) Remaining() int {
	return s.Total - s.Completed
}

// SuccessRate returns the share of counted units that succeeded, in percent.
func (s Snapshot) SuccessRate() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Completed) * 100
}

// Observer receives a Snapshot after every recorded outcome.
type Observer func(Snapshot)

// State is the lifecycle position of a session.
type State int

const (
	Configured State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason explains why a session ended.
type Reason string

const (
	ReasonCompleted   Reason = "completed"
	ReasonRateLimited Reason = "rate_limited"
	ReasonCanceled    Reason = "canceled"
)

// Result is produced once, when a session ends.
type Result struct {
	ID              string        `json:"id"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	Total           int           `json:"total"`
	Elapsed         time.Duration `json:"elapsed"`
	TerminatedEarly bool          `json:"terminatedEarly"`
	Reason          Reason        `json:"reason"`
}

// Completed returns the number of counted units.
func (r Result) Completed() int {
	return r.Succeeded + r.Failed
}
