// Package dispatch runs a batch of independent tasks on a fixed pool of workers.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item. Exactly one of Value and Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// PanicError reports a worker that panicked while processing one item
type PanicError struct {
	Index int
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("item %d panicked: %v", e.Index, e.Value)
}

// Run calls work for every item using min(concurrency, len(items)) goroutines
// and returns one Result per item, aligned with items regardless of the order
// in which work finishes.
//
// A failing item never stops the batch: its error lands in its own slot and the
// workers move on. Once ctx is done, items not yet started get ctx.Err() without
// being processed. Run returns only after every worker has exited.
func Run[T, R any](ctx context.Context, items []T, concurrency int, work func(ctx context.Context, i int, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	workers := concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	// A closed, pre-filled queue hands out each index exactly once
	queue := make(chan int, len(items))
	for i := range items {
		queue <- i
	}
	close(queue)

	// The group only joins the workers. Item failures go to their result
	// slot, so no worker returns an error and one failing item never cancels
	// the others.
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range queue {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i] = runOne(ctx, i, items[i], work)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runOne[T, R any](ctx context.Context, i int, item T, work func(context.Context, int, T) (R, error)) (res Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[R]{Err: &PanicError{Index: i, Value: p, Stack: debug.Stack()}}
		}
	}()
	v, err := work(ctx, i, item)
	if err != nil {
		return Result[R]{Err: err}
	}
	return Result[R]{Value: v}
}

// Failed counts the results that carry an error
func Failed[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
