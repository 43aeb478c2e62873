// Package worker runs blocking upstream fetches on a bounded pool so request handlers
// never hold more than a fixed number of slow calls open against the data APIs.
//
// A job is submitted with Submit, which returns a one-shot channel (a future) that
// receives exactly one Result. Do is the common "submit and wait" shortcut.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many jobs run at the same time and how long each may take.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// Result is what a job sends back through its future.
type Result[T any] struct {
	Value T
	Err   error
}

// New creates a pool that runs at most size jobs at once. A zero timeout means jobs
// only stop when the caller's context does.
func New(size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(size)),
		timeout: timeout,
	}
}

// Submit schedules fn and returns immediately. The returned channel is buffered so the
// job goroutine never blocks on a caller that stopped listening.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)

	go func() {
		var zero T
		if err := p.sem.Acquire(ctx, 1); err != nil {
			out <- Result[T]{Value: zero, Err: err}
			return
		}
		defer p.sem.Release(1)

		jobCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			jobCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		defer func() {
			if r := recover(); r != nil {
				out <- Result[T]{Value: zero, Err: fmt.Errorf("worker: job panicked: %v", r)}
			}
		}()

		v, err := fn(jobCtx)
		out <- Result[T]{Value: v, Err: err}
	}()

	return out
}

// Do submits fn and waits for its result or for ctx to end, whichever comes first.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	select {
	case res := <-Submit(ctx, p, fn):
		return res.Value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
