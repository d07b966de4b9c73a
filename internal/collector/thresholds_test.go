package collector

import (
	"testing"
	"time"
)

func TestThresholds_NilPasses(t *testing.T) {
	var th *Thresholds
	if r := th.Check(&Metrics{}); !r.Passed || len(r.Results) != 0 {
		t.Errorf("nil thresholds should pass with no results, got %+v", r)
	}
}

func TestThresholds_Duration(t *testing.T) {
	th := &Thresholds{UnitDuration: &DurationThresholds{
		P95: 100 * time.Millisecond,
		P99: 200 * time.Millisecond,
	}}
	m := &Metrics{TotalUnits: 10, Duration: DurationMetrics{
		P95: 90 * time.Millisecond,
		P99: 250 * time.Millisecond,
	}}

	r := th.Check(m)
	if r.Passed {
		t.Error("expected failure on p99")
	}
	if len(r.Results) != 2 {
		t.Fatalf("expected 2 results (zero limits skipped), got %d", len(r.Results))
	}
	v := r.Violations()
	if len(v) != 1 || v[0].Name != "unit_duration.p99" || v[0].Actual != "250ms" || v[0].Op != "<" {
		t.Errorf("unexpected violations %+v", v)
	}
}

func TestThresholds_Gates(t *testing.T) {
	tests := []struct {
		name       string
		th         Thresholds
		m          Metrics
		wantName   string
		wantPassed bool
	}{
		{
			name:     "failure rate under limit",
			th:       Thresholds{UnitFailed: &RateThreshold{Rate: "5%"}},
			m:        Metrics{Requested: 100, TotalUnits: 100, SuccessRate: 98},
			wantName: "unit_failed.rate", wantPassed: true,
		},
		{
			name:     "failure rate over limit",
			th:       Thresholds{UnitFailed: &RateThreshold{Rate: "5%"}},
			m:        Metrics{Requested: 100, TotalUnits: 100, SuccessRate: 90},
			wantName: "unit_failed.rate", wantPassed: false,
		},
		{
			name:     "failure rate with no units",
			th:       Thresholds{UnitFailed: &RateThreshold{Rate: "5%"}},
			m:        Metrics{Requested: 10},
			wantName: "unit_failed.rate", wantPassed: true,
		},
		{
			name:     "all requested units completed",
			th:       Thresholds{UnitCompleted: &RateThreshold{Rate: "100%"}},
			m:        Metrics{Requested: 25, TotalUnits: 25},
			wantName: "unit_completed.rate", wantPassed: true,
		},
		{
			name:     "stopped early by rate limit",
			th:       Thresholds{UnitCompleted: &RateThreshold{Rate: "100%"}},
			m:        Metrics{Requested: 50, TotalUnits: 7, RateLimited: 1},
			wantName: "unit_completed.rate", wantPassed: false,
		},
		{
			name:     "partial completion allowed",
			th:       Thresholds{UnitCompleted: &RateThreshold{Rate: "50%"}},
			m:        Metrics{Requested: 10, TotalUnits: 5},
			wantName: "unit_completed.rate", wantPassed: true,
		},
		{
			name:     "throughput reached",
			th:       Thresholds{UnitsPerSec: 20},
			m:        Metrics{TotalUnits: 100, UnitsPerSec: 20},
			wantName: "units_per_sec", wantPassed: true,
		},
		{
			name:     "throughput too low",
			th:       Thresholds{UnitsPerSec: 20},
			m:        Metrics{TotalUnits: 100, UnitsPerSec: 12.5},
			wantName: "units_per_sec", wantPassed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.th.Check(&tt.m)
			if len(r.Results) != 1 {
				t.Fatalf("expected 1 result, got %+v", r.Results)
			}
			got := r.Results[0]
			if got.Name != tt.wantName || got.Passed != tt.wantPassed || r.Passed != tt.wantPassed {
				t.Errorf("got %+v (overall %v), want %s passed=%v", got, r.Passed, tt.wantName, tt.wantPassed)
			}
		})
	}
}

func TestThresholds_MalformedRateSkipped(t *testing.T) {
	th := &Thresholds{
		UnitFailed:    &RateThreshold{Rate: "5"},
		UnitCompleted: &RateThreshold{Rate: "all"},
	}
	r := th.Check(&Metrics{Requested: 10, TotalUnits: 1, SuccessRate: 0})
	if !r.Passed || len(r.Results) != 0 {
		t.Errorf("malformed rates should be skipped, got %+v", r)
	}
}

func TestThresholds_Combined(t *testing.T) {
	th := &Thresholds{
		UnitDuration:  &DurationThresholds{P95: time.Second},
		UnitFailed:    &RateThreshold{Rate: "10%"},
		UnitCompleted: &RateThreshold{Rate: "100%"},
	}
	m := &Metrics{
		Requested: 20, TotalUnits: 7, SuccessRate: 100,
		Duration: DurationMetrics{P95: 20 * time.Millisecond},
	}

	r := th.Check(m)
	if r.Passed {
		t.Fatal("expected the completion gate to fail the run")
	}
	v := r.Violations()
	if len(v) != 1 || v[0].Name != "unit_completed.rate" || v[0].Op != ">=" || v[0].Actual != "35.00%" {
		t.Errorf("unexpected violations %+v", v)
	}
}

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{" 2.5% ", 2.5, false},
		{"100%", 100, false},
		{"2.5", 0, true},
		{"abc%", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePercentage(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePercentage(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{45 * time.Millisecond, "45ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
