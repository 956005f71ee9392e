package extract

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner lets the pipeline schedule extraction calls with any concurrency
// model. The default is an errgroup with a fixed-size gate, because the
// completion service enforces its own rate limits and unbounded dispatch is
// disallowed.
type Runner interface {
	Go(fn func() error) // schedule
	Wait() error        // join / propagate first err
}

// NewLimitedRunner returns a Runner that keeps at most maxInFlight calls
// running. The derived context is cancelled on the first failure, so pending
// work stops dispatching while in-flight calls finish naturally.
func NewLimitedRunner(ctx context.Context, maxInFlight int) (Runner, context.Context) {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	return &gatedRunner{eg: eg, gate: make(chan struct{}, maxInFlight), ctx: egCtx}, egCtx
}

type gatedRunner struct {
	eg   *errgroup.Group
	gate chan struct{}
	ctx  context.Context
}

func (r *gatedRunner) Go(fn func() error) {
	r.eg.Go(func() error {
		select {
		case r.gate <- struct{}{}:
		case <-r.ctx.Done():
			return r.ctx.Err()
		}
		defer func() { <-r.gate }()
		if r.ctx.Err() != nil {
			return r.ctx.Err() // cancelled while queued; do not dispatch
		}
		return fn()
	})
}

func (r *gatedRunner) Wait() error { return r.eg.Wait() }
