package fetch

import (
	"context"
	"math/rand"
	"time"

	"common-corpus/internal/models"
)

// Retrier wraps a Client with bounded exponential backoff. The delay doubles
// from Base up to MaxDelay; each Retrier carries its own jitter source so
// that workers that fail together don't retry in lockstep.
type Retrier struct {
	client   Client
	maxTries int
	base     time.Duration
	maxDelay time.Duration
	rng      *rand.Rand
}

// NewRetrier builds a retrier around client. maxTries counts total attempts;
// values below 1 are clamped to 1. seed distinguishes workers' jitter.
func NewRetrier(client Client, maxTries int, base, maxDelay time.Duration, seed int64) *Retrier {
	if maxTries < 1 {
		maxTries = 1
	}
	return &Retrier{
		client:   client,
		maxTries: maxTries,
		base:     base,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Fetch attempts the fetch up to maxTries times. Fatal errors and context
// cancellation return immediately; transient failures sleep with jittered
// backoff between attempts. The last transient error is returned once the
// bound is exhausted.
func (r *Retrier) Fetch(ctx context.Context, cand models.Candidate) ([]byte, error) {
	delay := r.base
	var lastErr error
	for attempt := 0; attempt < r.maxTries; attempt++ {
		data, err := r.client.Fetch(ctx, cand)
		if err == nil {
			return data, nil
		}
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		if attempt == r.maxTries-1 {
			break
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
		if r.maxDelay > 0 && delay > r.maxDelay {
			delay = r.maxDelay
		}
	}
	return nil, lastErr
}

// sleep waits for d plus up to 50% jitter, or until ctx is done.
func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	d += time.Duration(r.rng.Int63n(int64(d)/2 + 1))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
