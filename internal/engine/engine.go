// Package engine drives the coverage-guided selection loop: a fixed pool of
// workers pulling candidates, fetching their bytes, executing the target,
// and committing new coverage to the shared ledger.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"common-corpus/internal/checkpoint"
	"common-corpus/internal/corpus"
	"common-corpus/internal/events"
	"common-corpus/internal/fetch"
	"common-corpus/internal/index"
	"common-corpus/internal/ledger"
	"common-corpus/internal/models"
	"common-corpus/internal/runner"
)

// TargetRunner abstracts runner.Runner.
type TargetRunner interface {
	Run(worker int, data []byte) (runner.Result, error)
}

// Config holds the engine's tunables.
type Config struct {
	Workers       int
	RetryMax      int           // attempts per fetch before degrading to skip
	RetryBase     time.Duration // first backoff delay
	RetryMaxDelay time.Duration // backoff cap
}

// Deps are the engine's collaborators. Producer and Manager may be nil.
type Deps struct {
	Source   index.Source
	Client   fetch.Client
	Runner   TargetRunner
	Ledger   *ledger.Ledger
	Corpus   *corpus.Writer
	Tracker  *Tracker
	Progress *Printer
	Producer events.ResultProducer
	Manager  *checkpoint.Manager
}

// Engine is the worker pool. There is no task queue: the source behind the
// pull lock is the sole dispenser of work.
type Engine struct {
	cfg    Config
	d      Deps
	pullMu sync.Mutex
}

// New builds an engine. Workers below 1 are clamped to 1.
func New(cfg Config, d Deps) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RetryMax < 1 {
		cfg.RetryMax = 1
	}
	return &Engine{cfg: cfg, d: d}
}

// Run processes the source to exhaustion or cancellation. Per-candidate
// failures are skips, never run-fatal, so Run only returns an error when a
// worker hits one that genuinely cannot be localized.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.Workers; i++ {
		id := i
		// Each worker gets its own retrier so backoff jitter is
		// per-worker and never synchronized.
		fetcher := fetch.NewRetrier(e.d.Client, e.cfg.RetryMax, e.cfg.RetryBase, e.cfg.RetryMaxDelay, int64(id)+1)
		g.Go(func() error {
			return e.worker(gctx, id, fetcher)
		})
	}
	return g.Wait()
}

// Snapshot assembles the current run state for checkpointing. Safe to call
// while workers run.
func (e *Engine) Snapshot() models.RunState {
	return models.RunState{
		Version:       models.RunStateVersion,
		Cursor:        e.d.Tracker.Cursor(),
		NextCorpusID:  e.d.Corpus.Next(),
		TestedCount:   e.d.Tracker.Completed(),
		CoverageEdges: e.d.Ledger.Snapshot(),
	}
}

// worker runs PULL -> FETCH -> EXECUTE -> EVALUATE/COMMIT until the source
// is exhausted or cancellation is observed between phases.
func (e *Engine) worker(ctx context.Context, id int, fetcher fetch.Client) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		cand, pos, ok, err := e.pull(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Printf("worker %d: source error: %v", id, err)
			return nil
		}
		if !ok {
			return nil
		}

		data, err := fetcher.Fetch(ctx, cand)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted mid-fetch: leave the position incomplete
				// so it is re-tested on resume.
				return nil
			}
			log.Printf("worker %d: fetch %s: %v", id, cand.ArchiveFile, err)
			e.finish(ctx, pos, cand, models.OutcomeSkip, nil, 0, nil)
			continue
		}

		res, err := e.d.Runner.Run(id, data)
		if err != nil {
			log.Printf("worker %d: %v", id, err)
			e.finish(ctx, pos, cand, models.OutcomeSkip, nil, 0, nil)
			continue
		}

		isNew, newCount := e.d.Ledger.TryCommit(res.Edges)
		if !isNew {
			e.finish(ctx, pos, cand, models.OutcomeKnown, nil, 0, nil)
			continue
		}
		corpusID, err := e.d.Corpus.Commit(data, res.Artifact)
		if err != nil {
			// The edges are in the ledger but the entry wasn't retained.
			log.Printf("worker %d: corpus commit: %v", id, err)
			e.finish(ctx, pos, cand, models.OutcomeSkip, nil, 0, nil)
			continue
		}
		e.finish(ctx, pos, cand, models.OutcomeNew, &corpusID, newCount, res.Edges)
	}
}

// pull hands out the next candidate and its position; the lock makes the
// cursor advance atomic across workers.
func (e *Engine) pull(ctx context.Context) (models.Candidate, uint64, bool, error) {
	e.pullMu.Lock()
	defer e.pullMu.Unlock()
	return e.d.Source.Next(ctx)
}

// finish records completion, emits the progress marker, and publishes the
// result event.
func (e *Engine) finish(ctx context.Context, pos uint64, cand models.Candidate, outcome string, corpusID *uint64, newCount int, edges []uint64) {
	_, completed := e.d.Tracker.Complete(pos)
	e.d.Progress.Mark(outcome)
	e.d.Progress.MaybeStats(completed, e.d.Ledger.Len())
	if e.d.Manager != nil {
		e.d.Manager.Observe(completed)
	}
	if e.d.Producer != nil {
		event := models.ResultEvent{
			Position:    pos,
			Outcome:     outcome,
			SourceURL:   cand.SourceURL,
			ArchiveFile: cand.ArchiveFile,
			CorpusID:    corpusID,
			NewEdges:    newCount,
			Edges:       edges,
			TestedAt:    time.Now().UTC(),
		}
		if err := e.d.Producer.WriteResult(ctx, event); err != nil {
			log.Printf("result event publish: %v", err)
		}
	}
}
