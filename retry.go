package extract

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy decides how many times a completion call may be attempted and
// how long to wait between attempts. Classify reports whether a failure is
// worth another attempt; fatal failures surface immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
	Classify    func(error) bool // true → retryable
}

// DefaultRetryPolicy matches the provider contract: three attempts,
// exponential backoff from 500ms with jitter, retrying only transient
// failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Jitter:      true,
		Classify:    isRetryable,
	}
}

// delay returns the backoff before attempt n (1-based; no delay before the
// first attempt). The base doubles each attempt; jitter adds up to 50%.
func (p RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay << (attempt - 2)
	if p.Jitter {
		d += time.Duration(rand.Int63n(int64(d)/2 + 1))
	}
	return d
}

// run executes call with the policy, sleeping context-aware between attempts.
// It returns the last error (still unwrapped; callers classify into the
// transient/fatal taxonomy) and the number of attempts actually made.
func (p RetryPolicy) run(ctx context.Context, call func() error) (int, error) {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		if d := p.delay(attempt); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return attempt - 1, ctx.Err()
			case <-t.C:
			}
		}
		if err = call(); err == nil {
			return attempt, nil
		}
		if p.Classify != nil && !p.Classify(err) {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, err
		}
	}
	return max, err
}
