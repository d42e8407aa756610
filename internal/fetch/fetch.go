// Package fetch retrieves candidate bytes from the remote archive.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"common-corpus/internal/models"
)

// Client retrieves the raw bytes for one candidate descriptor.
type Client interface {
	Fetch(ctx context.Context, cand models.Candidate) ([]byte, error)
}

// FatalError marks a fetch failure that retrying cannot fix (bad descriptor,
// permanent HTTP status). Everything else is treated as transient.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal fetch error: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatalf wraps a formatted error as fatal.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
