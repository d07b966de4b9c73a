// Package batch sizes the rounds of work a session dispatches.
package batch

const (
	MinWorkers = 1
	MaxWorkers = 100

	// perWorker is how many units each worker gets per batch.
	perWorker = 2
)

// ClampWorkers forces n into [MinWorkers, MaxWorkers].
func ClampWorkers(n int) int {
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// Scheduler computes batch sizes from remaining work and the worker budget.
type Scheduler struct {
	workers int
}

// NewScheduler creates a Scheduler with workers clamped to [MinWorkers, MaxWorkers].
func NewScheduler(workers int) *Scheduler {
	return &Scheduler{workers: ClampWorkers(workers)}
}

// Workers returns the clamped worker budget.
func (s *Scheduler) Workers() int {
	return s.workers
}

// MaxBatch is the largest batch Next will ever return.
func (s *Scheduler) MaxBatch() int {
	return s.workers * perWorker
}

// Next returns the size of the next batch, or 0 when nothing remains.
func (s *Scheduler) Next(remaining int) int {
	if remaining <= 0 {
		return 0
	}
	return min(remaining, s.MaxBatch())
}

// Plan returns the batch sizes of an uninterrupted run of total units.
func (s *Scheduler) Plan(total int) []int {
	var sizes []int
	for remaining := total; remaining > 0; {
		n := s.Next(remaining)
		sizes = append(sizes, n)
		remaining -= n
	}
	return sizes
}

// RecommendedWorkers suggests a worker budget for count units:
// one worker per ten units, between 1 and 50.
func RecommendedWorkers(count int) int {
	return max(1, min(count/10, 50))
}
