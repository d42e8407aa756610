package ledger

import (
	"math/rand"
	"reflect"
	"sync"
	"testing"
)

func TestTryCommitIdempotent(t *testing.T) {
	l := New()
	edges := []uint64{1, 2, 3}

	isNew, n := l.TryCommit(edges)
	if !isNew || n != 3 {
		t.Fatalf("first commit: isNew=%v n=%d, want true 3", isNew, n)
	}
	isNew, n = l.TryCommit(edges)
	if isNew || n != 0 {
		t.Fatalf("second commit: isNew=%v n=%d, want false 0", isNew, n)
	}
}

func TestTryCommitOverlap(t *testing.T) {
	l := New()
	if isNew, n := l.TryCommit([]uint64{10, 20}); !isNew || n != 2 {
		t.Fatalf("commit {10,20}: isNew=%v n=%d", isNew, n)
	}
	if isNew, n := l.TryCommit([]uint64{20, 30}); !isNew || n != 1 {
		t.Fatalf("commit {20,30}: isNew=%v n=%d, want true 1", isNew, n)
	}
	if got := l.Snapshot(); !reflect.DeepEqual(got, []uint64{10, 20, 30}) {
		t.Fatalf("snapshot: %v", got)
	}
}

func TestTryCommitDuplicatesInInput(t *testing.T) {
	l := New()
	if isNew, n := l.TryCommit([]uint64{7, 7, 7}); !isNew || n != 1 {
		t.Fatalf("isNew=%v n=%d, want true 1", isNew, n)
	}
	if l.Len() != 1 {
		t.Fatalf("len=%d, want 1", l.Len())
	}
}

func TestRestorePreseedsLedger(t *testing.T) {
	l := New()
	l.Restore([]uint64{1, 2, 3, 4})
	if isNew, _ := l.TryCommit([]uint64{1, 2}); isNew {
		t.Fatal("restored edges reported as new")
	}
	if isNew, n := l.TryCommit([]uint64{4, 5}); !isNew || n != 1 {
		t.Fatalf("isNew=%v n=%d, want true 1", isNew, n)
	}
}

// Final ledger content must not depend on commit interleaving.
func TestConcurrentCommitsDeterministicContent(t *testing.T) {
	sets := make([][]uint64, 64)
	rng := rand.New(rand.NewSource(42))
	for i := range sets {
		for j := 0; j < 16; j++ {
			sets[i] = append(sets[i], uint64(rng.Intn(200)))
		}
	}

	run := func(workers int) []uint64 {
		l := New()
		ch := make(chan []uint64)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for edges := range ch {
					l.TryCommit(edges)
				}
			}()
		}
		for _, s := range sets {
			ch <- s
		}
		close(ch)
		wg.Wait()
		return l.Snapshot()
	}

	want := run(1)
	for _, workers := range []int{2, 8} {
		if got := run(workers); !reflect.DeepEqual(got, want) {
			t.Fatalf("workers=%d: ledger content diverged", workers)
		}
	}
}
