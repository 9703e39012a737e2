// Package limiter runs a batch of independent units of work under a
// bounded-concurrency scheduler and reports per-unit settled outcomes.
package limiter

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the settled result of one unit of work: either Value or Err is
// meaningful, never both.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Fulfilled reports whether the unit completed without error.
func (o Outcome[T]) Fulfilled() bool {
	return o.Err == nil
}

// RunBatch executes fn for every index in [0, n) with at most limit units in
// flight at once. Units start in index order; the returned slice is indexed
// by input position regardless of completion order. A failing unit never
// cancels or blocks its siblings. A limit below 1 means unbounded.
func RunBatch[T any](ctx context.Context, n, limit int, fn func(ctx context.Context, i int) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], n)

	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		group.Go(func() error {
			value, err := fn(groupCtx, i)
			outcomes[i] = Outcome[T]{Value: value, Err: err}
			// Errors are captured per unit; never fail the group, so one
			// unit's failure cannot cancel the shared context.
			return nil
		})
	}
	_ = group.Wait()

	return outcomes
}
