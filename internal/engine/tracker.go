package engine

import "sync"

// Tracker records completed candidate positions and derives the durable
// cursor: the lowest position not yet fully processed. Workers pull
// positions eagerly and finish out of order, so completions past the
// frontier are buffered until the gap closes, the same way the offsets of
// a partition are committed contiguously.
type Tracker struct {
	mu        sync.Mutex
	next      uint64              // all positions < next have completed
	pending   map[uint64]struct{} // completed positions >= next
	completed uint64              // total completions, gaps included
}

// NewTracker seeds the frontier and completion count, from a resumed
// snapshot or zero for a fresh run.
func NewTracker(cursor, completed uint64) *Tracker {
	return &Tracker{
		next:      cursor,
		pending:   make(map[uint64]struct{}),
		completed: completed,
	}
}

// Complete records that the candidate at pos finished (committed, known, or
// skipped) and advances the frontier across contiguous completions.
// Returns the new cursor and total completed count.
func (t *Tracker) Complete(pos uint64) (cursor, completed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.pending[pos] = struct{}{}
	for {
		if _, ok := t.pending[t.next]; !ok {
			break
		}
		delete(t.pending, t.next)
		t.next++
	}
	return t.next, t.completed
}

// Cursor returns the resumable frontier position.
func (t *Tracker) Cursor() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Completed returns the total number of completed candidates.
func (t *Tracker) Completed() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}
