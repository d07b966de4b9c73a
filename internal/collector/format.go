package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"volley/internal/core"
)

// maxReportedErrors caps the failure breakdown in reports.
const maxReportedErrors = 5

// FormatText writes a session result in human-readable format.
func FormatText(w io.Writer, r core.Result, m *Metrics, thresholds *ThresholdResults) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Volley - Session Results")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Session:        %s\n", r.ID)
	fmt.Fprintf(w, "Status:         %s\n", describeReason(r))
	fmt.Fprintf(w, "Duration:       %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Units:          %s / %s\n", formatNumber(r.Completed()), formatNumber(r.Total))

	if m.TotalUnits == 0 {
		fmt.Fprintln(w, "No units completed")
		return
	}

	fmt.Fprintf(w, "Success Rate:   %.1f%% (%s / %s)\n",
		m.SuccessRate, formatNumber(m.SuccessCount), formatNumber(m.TotalUnits))
	fmt.Fprintf(w, "Failed:         %s\n", formatNumber(m.FailureCount))
	fmt.Fprintf(w, "Units/sec:      %.1f\n", m.UnitsPerSec)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Response Times:")
	fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(m.Duration.Min))
	fmt.Fprintf(w, "  Avg:    %s\n", FormatDuration(m.Duration.Avg))
	fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(m.Duration.P50))
	fmt.Fprintf(w, "  P90:    %s\n", FormatDuration(m.Duration.P90))
	fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(m.Duration.P95))
	fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(m.Duration.P99))
	fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(m.Duration.Max))

	if errs := m.TopErrors(maxReportedErrors); len(errs) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Top Errors:")
		for _, e := range errs {
			fmt.Fprintf(w, "  %6s  %s\n", formatNumber(e.Count), e.Message)
		}
	}

	if thresholds != nil && len(thresholds.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Thresholds:")
		for _, result := range thresholds.Results {
			symbol := "✓"
			if !result.Passed {
				symbol = "✗"
			}
			op := result.Op
			if op == "" {
				op = opBelow
			}
			fmt.Fprintf(w, "  %s %s %s %s (actual: %s)\n",
				symbol, result.Name, op, result.Threshold, result.Actual)
		}
	}
}

func describeReason(r core.Result) string {
	switch r.Reason {
	case core.ReasonRateLimited:
		return "stopped early: endpoint rate limit reached"
	case core.ReasonCanceled:
		return "stopped early: canceled"
	default:
		return "completed"
	}
}

// FormatJSON writes a session result in JSON format.
func FormatJSON(w io.Writer, r core.Result, m *Metrics, thresholds *ThresholdResults) {
	output := struct {
		ID              string              `json:"id"`
		Reason          core.Reason         `json:"reason"`
		TerminatedEarly bool                `json:"terminatedEarly"`
		Duration        string              `json:"duration"`
		Total           int                 `json:"total"`
		Completed       int                 `json:"completed"`
		SuccessCount    int                 `json:"successCount"`
		FailureCount    int                 `json:"failureCount"`
		SuccessRate     float64             `json:"successRate"`
		UnitsPerSec     float64             `json:"unitsPerSec"`
		Durations       jsonDurationMetrics `json:"durations"`
		Errors          []ErrorCount        `json:"errors,omitempty"`
		Thresholds      *ThresholdResults   `json:"thresholds,omitempty"`
	}{
		ID:              r.ID,
		Reason:          r.Reason,
		TerminatedEarly: r.TerminatedEarly,
		Duration:        r.Elapsed.Round(time.Millisecond).String(),
		Total:           r.Total,
		Completed:       r.Completed(),
		SuccessCount:    m.SuccessCount,
		FailureCount:    m.FailureCount,
		SuccessRate:     m.SuccessRate,
		UnitsPerSec:     m.UnitsPerSec,
		Durations:       toJSONDurationMetrics(m.Duration),
		Errors:          m.TopErrors(maxReportedErrors),
		Thresholds:      thresholds,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonDurationMetrics struct {
	Min string `json:"min"`
	Max string `json:"max"`
	Avg string `json:"avg"`
	P50 string `json:"p50"`
	P90 string `json:"p90"`
	P95 string `json:"p95"`
	P99 string `json:"p99"`
}

func toJSONDurationMetrics(d DurationMetrics) jsonDurationMetrics {
	return jsonDurationMetrics{
		Min: FormatDuration(d.Min),
		Max: FormatDuration(d.Max),
		Avg: FormatDuration(d.Avg),
		P50: FormatDuration(d.P50),
		P90: FormatDuration(d.P90),
		P95: FormatDuration(d.P95),
		P99: FormatDuration(d.P99),
	}
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
