package recognizer

import (
	"context"
	"time"
)

// Retrier wraps a Recognizer with a bounded number of attempts and a
// fixed delay between them.
type Retrier struct {
	inner       Recognizer
	maxAttempts int
	delay       time.Duration
}

// NewRetrier wraps inner. maxAttempts values below 1 are clamped to 1.
func NewRetrier(inner Recognizer, maxAttempts int, delay time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{inner: inner, maxAttempts: maxAttempts, delay: delay}
}

// Recognize retries the wrapped recognizer until it finds a track or
// the attempt budget is spent, waiting the fixed delay between
// attempts. Exhaustion yields NotFound, indistinguishable from a true
// negative recognition.
func (r *Retrier) Recognize(ctx context.Context, path string) Result {
	for attempt := 1; ; attempt++ {
		if result := r.inner.Recognize(ctx, path); result.Found {
			return result
		}
		if attempt >= r.maxAttempts {
			return NotFound()
		}

		select {
		case <-ctx.Done():
			return NotFound()
		case <-time.After(r.delay):
		}
	}
}
