package corpus

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func TestCommitWritesFileAndSidecar(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "pdf")

	id, err := w.Commit([]byte("data"), []byte("cov"))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if id != 0 {
		t.Fatalf("first id = %d, want 0", id)
	}
	data, err := os.ReadFile(filepath.Join(dir, "corpus0.pdf"))
	if err != nil || string(data) != "data" {
		t.Fatalf("corpus file: %q err=%v", data, err)
	}
	cov, err := os.ReadFile(filepath.Join(dir, "corpus0.pdf.sancov"))
	if err != nil || string(cov) != "cov" {
		t.Fatalf("sidecar: %q err=%v", cov, err)
	}
	if w.Next() != 1 {
		t.Fatalf("Next() = %d, want 1", w.Next())
	}
}

func TestSetNextResumesCounter(t *testing.T) {
	w := NewWriter(t.TempDir(), "png")
	w.SetNext(17)
	id, err := w.Commit(nil, nil)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if id != 17 {
		t.Fatalf("id = %d, want 17", id)
	}
}

func TestConcurrentCommitsUniqueMonotonicIDs(t *testing.T) {
	w := NewWriter(t.TempDir(), "bin")
	const n = 50

	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := w.Commit([]byte{byte(i)}, nil)
			if err != nil {
				t.Errorf("Commit: %v", err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != uint64(i) {
			t.Fatalf("ids not dense/unique: %v", ids)
		}
	}
	if w.Next() != n {
		t.Fatalf("Next() = %d, want %d", w.Next(), n)
	}
}
