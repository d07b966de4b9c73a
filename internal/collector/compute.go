package collector

import (
	"sort"
	"time"

	"volley/internal/core"
)

// Metrics contains aggregated session results.
type Metrics struct {
	// Requested is the session's unit count; TotalUnits is how many were counted.
	Requested    int
	TotalUnits   int
	SuccessCount int
	FailureCount int
	// RateLimited counts sentinel outcomes; they are not part of TotalUnits.
	RateLimited  int
	SuccessRate  float64
	UnitsPerSec  float64
	TestDuration time.Duration
	Duration     DurationMetrics
	Errors       map[string]int
}

// DurationMetrics contains latency statistics.
type DurationMetrics struct {
	Min time.Duration
	Max time.Duration
	Avg time.Duration
	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// ComputeMetrics builds Metrics from counters and latencies. Pure function, no side effects.
func ComputeMetrics(snap core.Snapshot, rateLimited int, durations []time.Duration, errors map[string]int, testDuration time.Duration) *Metrics {
	m := &Metrics{
		Requested:    snap.Total,
		TotalUnits:   snap.Completed,
		SuccessCount: snap.Succeeded,
		FailureCount: snap.Failed,
		RateLimited:  rateLimited,
		SuccessRate:  snap.SuccessRate(),
		TestDuration: testDuration,
		Errors:       errors,
	}
	if m.Errors == nil {
		m.Errors = make(map[string]int)
	}

	if m.TestDuration > 0 {
		m.UnitsPerSec = float64(m.TotalUnits) / m.TestDuration.Seconds()
	}

	m.Duration = ComputeDurationMetrics(durations)
	return m
}

// FailureRate returns the share of counted units that failed, in percent.
func (m *Metrics) FailureRate() float64 {
	if m.TotalUnits == 0 {
		return 0
	}
	return 100 - m.SuccessRate
}

// CompletionRate returns the share of requested units that were counted, in
// percent. A session stopped by rate limiting or cancellation stays below 100.
func (m *Metrics) CompletionRate() float64 {
	if m.Requested <= 0 {
		return 100
	}
	return float64(m.TotalUnits) / float64(m.Requested) * 100
}

// ComputePercentile calculates the percentile value from a sorted slice of durations.
// The percentile p should be between 0 and 1 (e.g., 0.95 for p95).
// The slice must be sorted in ascending order.
func ComputePercentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	// nearest rank
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}

// ComputeDurationMetrics calculates all duration statistics from a slice of durations.
// The input slice is not modified.
func ComputeDurationMetrics(durations []time.Duration) DurationMetrics {
	if len(durations) == 0 {
		return DurationMetrics{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return DurationMetrics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: total / time.Duration(len(sorted)),
		P50: ComputePercentile(sorted, 0.50),
		P90: ComputePercentile(sorted, 0.90),
		P95: ComputePercentile(sorted, 0.95),
		P99: ComputePercentile(sorted, 0.99),
	}
}

// TopErrors returns up to n error messages ordered by frequency, then text.
func (m *Metrics) TopErrors(n int) []ErrorCount {
	out := make([]ErrorCount, 0, len(m.Errors))
	for msg, count := range m.Errors {
		out = append(out, ErrorCount{Message: msg, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ErrorCount is one distinct failure message and how often it occurred.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
