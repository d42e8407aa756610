package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"common-corpus/internal/checkpoint"
	"common-corpus/internal/config"
	"common-corpus/internal/corpus"
	"common-corpus/internal/engine"
	"common-corpus/internal/events"
	"common-corpus/internal/fetch"
	"common-corpus/internal/index"
	"common-corpus/internal/ledger"
	"common-corpus/internal/models"
	"common-corpus/internal/runner"
)

// run wires the pipeline and processes the index to exhaustion or SIGINT.
func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := index.OpenCSV(cfg.IndexCSV)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Printf("failed to close index: %v", err)
		}
	}()

	store, closeStore := newStateStore(cfg)
	defer closeStore()

	led := ledger.New()
	writer := corpus.NewWriter(cfg.OutputDir, cfg.FileFormat)
	tracker := engine.NewTracker(0, 0)

	if cfg.Resume != "" {
		state, err := loadResumeState(ctx, cfg, store)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if err := source.Skip(state.Cursor); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		led.Restore(state.CoverageEdges)
		writer.SetNext(state.NextCorpusID)
		tracker = engine.NewTracker(state.Cursor, state.TestedCount)
		log.Printf("resumed at cursor=%d next_id=%d tested=%d edges=%d",
			state.Cursor, state.NextCorpusID, state.TestedCount, len(state.CoverageEdges))
	}

	target, err := runner.New(cfg.TargetCmdline, cfg.TargetBinary, cfg.FileFormat, cfg.ScratchDir, cfg.CleanupGlob)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var producer *events.Producer
	if cfg.KafkaBroker != "" {
		producer = events.NewProducer(cfg.KafkaBroker, cfg.ResultsTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Printf("failed to close result producer: %v", err)
			}
		}()
		log.Printf("publishing result events to %s topic=%s", cfg.KafkaBroker, cfg.ResultsTopic)
	}

	printer := engine.NewPrinter(os.Stdout, cfg.Verbose)

	var eng *engine.Engine
	manager := checkpoint.NewManager(store, func() models.RunState { return eng.Snapshot() },
		cfg.CheckpointInterval, cfg.CheckpointEvery)
	eng = engine.New(engine.Config{
		Workers:       cfg.Threads,
		RetryMax:      cfg.RetryMax,
		RetryBase:     cfg.RetryBaseDelay,
		RetryMaxDelay: cfg.RetryMaxDelay,
	}, engine.Deps{
		Source:   source,
		Client:   fetch.NewHTTPClient(cfg.ArchiveBaseURL),
		Runner:   target,
		Ledger:   led,
		Corpus:   writer,
		Tracker:  tracker,
		Progress: printer,
		Producer: producer,
		Manager:  manager,
	})

	mgrCtx, mgrStop := context.WithCancel(context.Background())
	mgrDone := make(chan struct{})
	go func() {
		manager.Run(mgrCtx)
		close(mgrDone)
	}()

	runErr := eng.Run(ctx)

	mgrStop()
	<-mgrDone
	// Final checkpoint after every worker has drained, so no committed
	// corpus entry or ledger edge is lost on interrupt.
	if err := manager.Final(context.Background()); err != nil {
		log.Printf("final checkpoint failed: %v", err)
	}
	if cfg.Verbose {
		printer.Stats(tracker.Completed(), led.Len())
	}
	if ctx.Err() != nil {
		fmt.Println("\nexiting gracefully")
	}
	return runErr
}

// newStateStore picks the checkpoint backend: Redis when configured,
// otherwise the local state file.
func newStateStore(cfg config.Config) (checkpoint.Store, func()) {
	if cfg.RedisAddr != "" {
		store := checkpoint.NewRedisStore(cfg.RedisAddr, cfg.RedisKey)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("failed to close redis client: %v", err)
			}
		}
	}
	return checkpoint.NewFileStore(cfg.StateFile), func() {}
}

// loadResumeState reads the prior snapshot. With a Redis backend the
// --resume value is only a switch; with files it names the state file,
// which may differ from where new state is saved.
func loadResumeState(ctx context.Context, cfg config.Config, store checkpoint.Store) (models.RunState, error) {
	loadFrom := store
	if cfg.RedisAddr == "" && cfg.Resume != cfg.StateFile {
		loadFrom = checkpoint.NewFileStore(cfg.Resume)
	}
	state, ok, err := loadFrom.Load(ctx)
	if err != nil {
		return models.RunState{}, err
	}
	if !ok {
		return models.RunState{}, fmt.Errorf("no saved state at %s", cfg.Resume)
	}
	return state, nil
}
