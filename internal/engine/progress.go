package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"common-corpus/internal/models"
)

// statsInterval is how often the verbose stats line is emitted.
const statsInterval = 30 * time.Second

// Printer emits the one-character-per-candidate progress stream: green `+`
// for new coverage, `.` for no new coverage, red `x` for a skip. Writes are
// serialized so markers from concurrent workers never interleave
// mid-character; cross-worker ordering is best-effort.
type Printer struct {
	mu        sync.Mutex
	out       io.Writer
	verbose   bool
	start     time.Time
	lastStats time.Time
	plus      string
	skip      string
}

// NewPrinter writes progress to out. When verbose, an aggregate stats line
// is appended periodically.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	now := time.Now()
	return &Printer{
		out:       out,
		verbose:   verbose,
		start:     now,
		lastStats: now,
		plus:      color.GreenString("+"),
		skip:      color.RedString("x"),
	}
}

// Mark prints the marker for one candidate outcome.
func (p *Printer) Mark(outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch outcome {
	case models.OutcomeNew:
		fmt.Fprint(p.out, p.plus)
	case models.OutcomeSkip:
		fmt.Fprint(p.out, p.skip)
	default:
		fmt.Fprint(p.out, ".")
	}
}

// MaybeStats prints the aggregate stats line when verbose and due.
func (p *Printer) MaybeStats(tested uint64, edges int) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.lastStats) < statsInterval {
		return
	}
	p.lastStats = time.Now()
	p.statsLocked(tested, edges)
}

// Stats prints the aggregate stats line unconditionally (end of run).
func (p *Printer) Stats(tested uint64, edges int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statsLocked(tested, edges)
}

func (p *Printer) statsLocked(tested uint64, edges int) {
	elapsed := time.Since(p.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(tested) / elapsed
	}
	fmt.Fprintf(p.out, "\n[stats] tested=%d edges=%d rate=%.1f/s elapsed=%.0fs\n", tested, edges, rate, elapsed)
}
