package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"volley/internal/core"
)

const maxBodyLogSize = 1024

// DebugLogger traces requests and responses in verbose mode.
// A nil *DebugLogger is valid and logs nothing.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

// NewDebugLogger writes request and response dumps to out.
func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

// LogRequest dumps req. The body is read and restored so it can still be sent.
func (d *DebugLogger) LogRequest(unit int, target string, req *http.Request) {
	if d == nil {
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n[Unit %d] >>> REQUEST: %s\n", unit, target)
	fmt.Fprintf(&buf, "  %s %s\n", req.Method, req.URL.String())
	writeHeaders(&buf, req.Header)

	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		if err == nil && len(body) > 0 {
			req.Body = io.NopCloser(bytes.NewReader(body))
			fmt.Fprintf(&buf, "  Body: %s\n", truncateBody(body))
		}
	}
	d.write(buf.Bytes())
}

// LogResponse dumps resp together with the outcome it was classified as.
func (d *DebugLogger) LogResponse(unit int, target string, resp *http.Response, body []byte, outcome core.Outcome, duration time.Duration) {
	if d == nil {
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "[Unit %d] <<< RESPONSE: %s (%s) => %s\n", unit, target, duration.Round(time.Millisecond), outcome)
	fmt.Fprintf(&buf, "  Status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	writeHeaders(&buf, resp.Header)
	if len(body) > 0 {
		fmt.Fprintf(&buf, "  Body: %s\n", truncateBody(body))
	}
	d.write(buf.Bytes())
}

// LogError records a transport error for unit.
func (d *DebugLogger) LogError(unit int, target string, errMsg string, duration time.Duration) {
	if d == nil {
		return
	}
	d.write([]byte(fmt.Sprintf("[Unit %d] !!! ERROR: %s (%s)\n  %s\n",
		unit, target, duration.Round(time.Millisecond), errMsg)))
}

func (d *DebugLogger) write(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = d.out.Write(p) // debug output is best effort
}

func writeHeaders(buf *bytes.Buffer, h http.Header) {
	if len(h) == 0 {
		return
	}
	buf.WriteString("  Headers:\n")
	for name, values := range h {
		fmt.Fprintf(buf, "    %s: %s\n", name, strings.Join(values, ", "))
	}
}

func truncateBody(body []byte) string {
	if len(body) <= maxBodyLogSize {
		return string(body)
	}
	return string(body[:maxBodyLogSize]) + fmt.Sprintf("... (truncated, %d bytes total)", len(body))
}
