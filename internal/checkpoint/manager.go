package checkpoint

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"common-corpus/internal/models"
)

// Manager snapshots run state periodically: every `every` completed
// candidates, every `interval` of wall time, and once more on Final. A
// failed save is a logged warning, not a run failure; the run continues
// with degraded crash-safety.
type Manager struct {
	store     Store
	snapshot  func() models.RunState
	interval  time.Duration
	every     uint64
	kick      chan struct{}
	lastCount atomic.Uint64
}

// NewManager builds a manager around store. snapshot must be safe to call
// from the manager goroutine while workers run.
func NewManager(store Store, snapshot func() models.RunState, interval time.Duration, every uint64) *Manager {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Manager{
		store:    store,
		snapshot: snapshot,
		interval: interval,
		every:    every,
		kick:     make(chan struct{}, 1),
	}
}

// Observe notes that `completed` candidates have finished and nudges the
// manager once another `every` candidates have passed. Non-blocking, called
// from worker goroutines.
func (m *Manager) Observe(completed uint64) {
	if m.every == 0 {
		return
	}
	last := m.lastCount.Load()
	if completed < last+m.every {
		return
	}
	if !m.lastCount.CompareAndSwap(last, completed) {
		return
	}
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Run saves on each trigger until ctx is cancelled. The final save on
// shutdown is Final's job, so cancellation returns immediately.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.save(ctx)
		case <-m.kick:
			m.save(ctx)
		}
	}
}

// Final writes the last snapshot of the run. Called after all workers have
// exited, including on cancellation and best-effort on fatal errors.
func (m *Manager) Final(ctx context.Context) error {
	return m.store.Save(ctx, m.snapshot())
}

func (m *Manager) save(ctx context.Context) {
	if err := m.store.Save(ctx, m.snapshot()); err != nil {
		log.Printf("checkpoint save failed (continuing with degraded crash-safety): %v", err)
	}
}
