package collector

import (
	"testing"
	"time"

	"volley/internal/core"
)

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(core.Snapshot{Total: 10}, 0, nil, nil, 10*time.Second)

	if m.TotalUnits != 0 {
		t.Errorf("expected 0 units, got %d", m.TotalUnits)
	}
	if m.TestDuration != 10*time.Second {
		t.Errorf("expected 10s duration, got %v", m.TestDuration)
	}
	if m.Errors == nil {
		t.Error("expected Errors map to be initialized")
	}
	if m.SuccessRate != 0 {
		t.Errorf("expected 0 success rate, got %.1f", m.SuccessRate)
	}
}

func TestComputeMetrics_SuccessRate(t *testing.T) {
	snap := core.Snapshot{Completed: 10, Succeeded: 7, Failed: 3, Total: 10}
	m := ComputeMetrics(snap, 0, nil, nil, time.Second)

	if m.SuccessRate != 70.0 {
		t.Errorf("expected 70%% success rate, got %.1f%%", m.SuccessRate)
	}
}

func TestMetrics_Rates(t *testing.T) {
	tests := []struct {
		name           string
		snap           core.Snapshot
		wantFailure    float64
		wantCompletion float64
	}{
		{"nothing counted", core.Snapshot{Total: 10}, 0, 0},
		{"all done", core.Snapshot{Completed: 4, Succeeded: 3, Failed: 1, Total: 4}, 25, 100},
		{"stopped early", core.Snapshot{Completed: 5, Succeeded: 5, Total: 20}, 0, 25},
		{"no total", core.Snapshot{}, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(tt.snap, 0, nil, nil, time.Second)
			if m.Requested != tt.snap.Total {
				t.Errorf("Requested = %d, want %d", m.Requested, tt.snap.Total)
			}
			if got := m.FailureRate(); got != tt.wantFailure {
				t.Errorf("FailureRate() = %v, want %v", got, tt.wantFailure)
			}
			if got := m.CompletionRate(); got != tt.wantCompletion {
				t.Errorf("CompletionRate() = %v, want %v", got, tt.wantCompletion)
			}
		})
	}
}

func TestComputeMetrics_UnitsPerSec(t *testing.T) {
	snap := core.Snapshot{Completed: 100, Succeeded: 100, Total: 100}
	m := ComputeMetrics(snap, 0, nil, nil, 10*time.Second)

	if m.UnitsPerSec != 10.0 {
		t.Errorf("expected 10.0 units/sec, got %.1f", m.UnitsPerSec)
	}
}

func TestComputeMetrics_ZeroDuration(t *testing.T) {
	snap := core.Snapshot{Completed: 5, Succeeded: 5, Total: 5}
	m := ComputeMetrics(snap, 0, nil, nil, 0)

	if m.UnitsPerSec != 0 {
		t.Errorf("expected 0 units/sec with zero duration, got %.1f", m.UnitsPerSec)
	}
}

func TestComputeDurationMetrics(t *testing.T) {
	durations := make([]time.Duration, 100)
	for i := range durations {
		durations[i] = time.Duration(100-i) * time.Millisecond
	}

	d := ComputeDurationMetrics(durations)

	if d.Min != time.Millisecond {
		t.Errorf("expected min 1ms, got %v", d.Min)
	}
	if d.Max != 100*time.Millisecond {
		t.Errorf("expected max 100ms, got %v", d.Max)
	}
	if d.P50 != 50*time.Millisecond {
		t.Errorf("expected p50 50ms, got %v", d.P50)
	}
	if d.P99 != 99*time.Millisecond {
		t.Errorf("expected p99 99ms, got %v", d.P99)
	}
	// Input must be left unsorted.
	if durations[0] != 100*time.Millisecond {
		t.Error("ComputeDurationMetrics modified its input")
	}
}

func TestComputePercentile_Edges(t *testing.T) {
	if ComputePercentile(nil, 0.5) != 0 {
		t.Error("expected 0 for empty input")
	}
	one := []time.Duration{time.Second}
	if ComputePercentile(one, 0.99) != time.Second {
		t.Error("expected single value")
	}
	sorted := []time.Duration{1, 2, 3}
	if ComputePercentile(sorted, 0) != 1 || ComputePercentile(sorted, 1) != 3 {
		t.Error("expected bounds for p=0 and p=1")
	}
}

func TestMetrics_TopErrors(t *testing.T) {
	m := &Metrics{Errors: map[string]int{
		"timeout":   5,
		"500":       9,
		"reset":     5,
		"forbidden": 1,
	}}

	top := m.TopErrors(3)
	if len(top) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(top))
	}
	if top[0].Message != "500" || top[1].Message != "reset" || top[2].Message != "timeout" {
		t.Errorf("unexpected order %+v", top)
	}
}
