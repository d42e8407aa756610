// Package corpus persists retained candidates under monotonically
// increasing ids.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Writer assigns corpus ids and writes retained files plus their coverage
// artifact sidecars. The id counter is independent of the ledger lock so
// commits from different workers only contend on the atomic increment.
type Writer struct {
	dir  string
	ext  string
	next atomic.Uint64
}

// NewWriter returns a writer placing files under dir as corpus<id>.<ext>.
func NewWriter(dir, ext string) *Writer {
	return &Writer{dir: dir, ext: ext}
}

// SetNext seeds the id counter when resuming. Must be called before any
// worker starts.
func (w *Writer) SetNext(id uint64) {
	w.next.Store(id)
}

// Next returns the next id that Commit would assign.
func (w *Writer) Next() uint64 {
	return w.next.Load()
}

// Commit assigns the next id and writes the candidate bytes and artifact.
// Ids are never reused: the counter advances even if the writes fail.
func (w *Writer) Commit(data, artifact []byte) (uint64, error) {
	id := w.next.Add(1) - 1
	path := filepath.Join(w.dir, fmt.Sprintf("corpus%d.%s", id, w.ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return id, fmt.Errorf("write corpus file: %w", err)
	}
	if err := os.WriteFile(path+".sancov", artifact, 0o644); err != nil {
		return id, fmt.Errorf("write coverage artifact: %w", err)
	}
	return id, nil
}
