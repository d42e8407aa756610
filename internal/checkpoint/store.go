// Package checkpoint persists run state for crash-safe resumption.
package checkpoint

import (
	"context"

	"common-corpus/internal/models"
)

// Store persists RunState snapshots.
type Store interface {
	// Save durably replaces the prior snapshot.
	Save(ctx context.Context, state models.RunState) error
	// Load returns the stored snapshot; ok is false when none exists.
	Load(ctx context.Context) (state models.RunState, ok bool, err error)
}
