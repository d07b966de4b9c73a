// Package progress renders a live status line while a session runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"volley/internal/core"
)

const barWidth = 20

// Source is what the progress line reads from. *session.Session satisfies it.
type Source interface {
	Snapshot() core.Snapshot
	Elapsed() time.Duration
}

type Progress struct {
	source   Source
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopped  atomic.Bool
	quiet    bool
	output   io.Writer
	mu       sync.Mutex
}

// NewProgress renders s to stderr once per second. A quiet Progress prints nothing.
func NewProgress(s Source, quiet bool) *Progress {
	return &Progress{
		source:   s,
		interval: time.Second,
		quiet:    quiet,
		output:   os.Stderr,
	}
}

// SetOutput redirects rendering to w.
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// SetInterval changes the refresh period. Call before Start.
func (p *Progress) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// Start begins periodic rendering in the background.
func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	line := Render(p.source.Snapshot(), p.source.Elapsed())
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s", line)
	p.mu.Unlock()
}

// Render formats one progress line:
//
//	[00:12] Units: 40/100 | OK: 38 | Failed: 2 | Success: 95.0% | [########------------]
func Render(snap core.Snapshot, elapsed time.Duration) string {
	elapsed = elapsed.Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("[%02d:%02d] Units: %d/%d | OK: %d | Failed: %d | Success: %.1f%% | [%s]",
		mins, secs, snap.Completed, snap.Total, snap.Succeeded, snap.Failed,
		snap.SuccessRate(), bar(snap.Completed, snap.Total))
}

func bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = min(barWidth*done/total, barWidth)
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
}

// Stop ends rendering and clears the line. It is safe to call more than once.
func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K")
	p.mu.Unlock()
}

// Print writes message on its own line above the progress bar.
func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
