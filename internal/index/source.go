// Package index streams candidate descriptors from the pre-built
// Common Crawl index.
package index

import (
	"context"

	"common-corpus/internal/models"
)

// Source yields an ordered, finite stream of candidates. Position numbers
// are stable across runs for the same index, which is what makes the
// checkpoint cursor meaningful.
type Source interface {
	// Next returns the next candidate and its index position. ok is false
	// once the source is exhausted.
	Next(ctx context.Context) (cand models.Candidate, pos uint64, ok bool, err error)
	// Skip advances past the first n candidates; used when resuming.
	Skip(n uint64) error
	Close() error
}
