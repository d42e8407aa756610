package engine

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"common-corpus/internal/models"
)

func newPlainPrinter(t *testing.T, out *strings.Builder, verbose bool) *Printer {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	return NewPrinter(out, verbose)
}

func TestMarkEmitsOneCharPerOutcome(t *testing.T) {
	var out strings.Builder
	p := newPlainPrinter(t, &out, false)

	p.Mark(models.OutcomeNew)
	p.Mark(models.OutcomeKnown)
	p.Mark(models.OutcomeSkip)
	p.Mark(models.OutcomeKnown)

	if got := out.String(); got != "+.x." {
		t.Fatalf("progress stream = %q, want %q", got, "+.x.")
	}
}

func TestStatsLineContents(t *testing.T) {
	var out strings.Builder
	p := newPlainPrinter(t, &out, true)

	p.Stats(120, 45)

	got := out.String()
	for _, want := range []string{"[stats]", "tested=120", "edges=45", "rate=", "elapsed="} {
		if !strings.Contains(got, want) {
			t.Fatalf("stats line %q missing %q", got, want)
		}
	}
}

func TestMaybeStatsRespectsVerboseAndInterval(t *testing.T) {
	var out strings.Builder
	p := newPlainPrinter(t, &out, false)
	p.MaybeStats(10, 5)
	if out.Len() != 0 {
		t.Fatalf("non-verbose printer emitted stats: %q", out.String())
	}

	out.Reset()
	p = newPlainPrinter(t, &out, true)
	// The interval clock starts at construction, so an immediate call is
	// never due.
	p.MaybeStats(10, 5)
	if out.Len() != 0 {
		t.Fatalf("stats emitted before the interval elapsed: %q", out.String())
	}

	p.lastStats = p.lastStats.Add(-2 * statsInterval)
	p.MaybeStats(10, 5)
	if !strings.Contains(out.String(), "tested=10") {
		t.Fatalf("stats not emitted after interval: %q", out.String())
	}
}
