// Package ledger holds the authoritative set of coverage edges seen so far.
package ledger

import (
	"sort"
	"sync"
)

// Ledger is the shared coverage edge set. It only grows within a run and is
// the single serialization point for the "is this new coverage?" decision.
type Ledger struct {
	mu    sync.Mutex
	edges map[uint64]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{edges: make(map[uint64]struct{})}
}

// Restore seeds the ledger with edges from a prior run's snapshot.
// Must be called before any worker starts.
func (l *Ledger) Restore(edges []uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range edges {
		l.edges[e] = struct{}{}
	}
}

// TryCommit inserts every edge not already present, as one critical section.
// Returns whether anything was new and how many edges were inserted.
func (l *Ledger) TryCommit(edges []uint64) (isNew bool, newCount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range edges {
		if _, ok := l.edges[e]; ok {
			continue
		}
		l.edges[e] = struct{}{}
		newCount++
	}
	return newCount > 0, newCount
}

// Len returns the number of distinct edges seen so far.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.edges)
}

// Snapshot returns the ledger content sorted ascending, so state files are
// deterministic for a given coverage set.
func (l *Ledger) Snapshot() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]uint64, 0, len(l.edges))
	for e := range l.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
