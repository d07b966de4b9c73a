package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds are the pass/fail gates of a session. Zero values are skipped.
//
//	unit_duration:  {p95: 500ms}   # latency must stay below
//	unit_failed:    {rate: "5%"}   # failure share must stay below
//	unit_completed: {rate: "100%"} # share of requested units that must complete
//	units_per_sec:  20             # throughput must reach
type Thresholds struct {
	UnitDuration  *DurationThresholds `yaml:"unit_duration"`
	UnitFailed    *RateThreshold      `yaml:"unit_failed"`
	UnitCompleted *RateThreshold      `yaml:"unit_completed"`
	UnitsPerSec   float64             `yaml:"units_per_sec"`
}

// DurationThresholds are upper bounds on unit latency.
type DurationThresholds struct {
	Avg time.Duration `yaml:"avg"`
	P50 time.Duration `yaml:"p50"`
	P90 time.Duration `yaml:"p90"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
}

// RateThreshold is a percentage such as "5%".
type RateThreshold struct {
	Rate string `yaml:"rate"`
}

// ThresholdResult is the outcome of one gate.
type ThresholdResult struct {
	Name      string `json:"name"`
	Op        string `json:"op"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains every evaluated gate.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

const (
	opBelow   = "<"
	opAtLeast = ">="
)

// gate compares one metric against its limit.
type gate struct {
	name          string
	op            string
	limit, actual float64
	threshold     string
	format        func(float64) string
}

func (g gate) passed() bool {
	if g.op == opAtLeast {
		return g.actual >= g.limit
	}
	return g.actual < g.limit
}

// Check evaluates every configured gate against m.
// Malformed percentages are skipped; config validation reports them.
func (t *Thresholds) Check(m *Metrics) *ThresholdResults {
	results := &ThresholdResults{Passed: true}
	if t == nil {
		return results
	}

	for _, g := range t.gates(m) {
		ok := g.passed()
		results.Passed = results.Passed && ok
		results.Results = append(results.Results, ThresholdResult{
			Name:      g.name,
			Op:        g.op,
			Passed:    ok,
			Threshold: g.threshold,
			Actual:    g.format(g.actual),
		})
	}
	return results
}

func (t *Thresholds) gates(m *Metrics) []gate {
	var gates []gate

	if d := t.UnitDuration; d != nil {
		for _, c := range []struct {
			name          string
			limit, actual time.Duration
		}{
			{"avg", d.Avg, m.Duration.Avg},
			{"p50", d.P50, m.Duration.P50},
			{"p90", d.P90, m.Duration.P90},
			{"p95", d.P95, m.Duration.P95},
			{"p99", d.P99, m.Duration.P99},
		} {
			if c.limit == 0 {
				continue
			}
			gates = append(gates, gate{
				name:      "unit_duration." + c.name,
				op:        opBelow,
				limit:     float64(c.limit),
				actual:    float64(c.actual),
				threshold: FormatDuration(c.limit),
				format:    func(v float64) string { return FormatDuration(time.Duration(v)) },
			})
		}
	}

	if limit, ok := t.UnitFailed.percent(); ok {
		gates = append(gates, gate{
			name: "unit_failed.rate", op: opBelow,
			limit: limit, actual: m.FailureRate(),
			threshold: t.UnitFailed.Rate, format: formatPercent,
		})
	}

	if limit, ok := t.UnitCompleted.percent(); ok {
		gates = append(gates, gate{
			name: "unit_completed.rate", op: opAtLeast,
			limit: limit, actual: m.CompletionRate(),
			threshold: t.UnitCompleted.Rate, format: formatPercent,
		})
	}

	if t.UnitsPerSec > 0 {
		gates = append(gates, gate{
			name: "units_per_sec", op: opAtLeast,
			limit: t.UnitsPerSec, actual: m.UnitsPerSec,
			threshold: strconv.FormatFloat(t.UnitsPerSec, 'f', -1, 64),
			format:    func(v float64) string { return fmt.Sprintf("%.1f", v) },
		})
	}

	return gates
}

func (r *RateThreshold) percent() (float64, bool) {
	if r == nil || r.Rate == "" {
		return 0, false
	}
	v, err := ParsePercentage(r.Rate)
	return v, err == nil
}

func formatPercent(v float64) string { return fmt.Sprintf("%.2f%%", v) }

// ParsePercentage parses values such as "5%" or "0.5%".
func ParsePercentage(s string) (float64, error) {
	num, ok := strings.CutSuffix(strings.TrimSpace(s), "%")
	if !ok {
		return 0, fmt.Errorf("invalid percentage format: %s", s)
	}
	return strconv.ParseFloat(num, 64)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Violations returns the failed gates.
func (r *ThresholdResults) Violations() []ThresholdResult {
	var violations []ThresholdResult
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}
