// Package fanout runs independent tasks concurrently and collects every outcome.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work. Its error is recorded, never propagated to siblings.
type Task[T any] func(ctx context.Context) (T, error)

// Result holds the outcome of the task at the same index.
type Result[T any] struct {
	Value T
	Err   error
}

// RunAll starts every task at once and returns after all of them finish.
// A failing or panicking task does not cancel the others: the group is
// created without a derived context and each goroutine reports nil to it.
func RunAll[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			v, err := task(ctx)
			results[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Errors returns the non-nil task errors in task order.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
