// Package workerpool fans a slice of work items out over a bounded set of
// goroutines.
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Process runs up to workerCount goroutines over items, invoking process for
// each. The first error cancels the remaining work, invokes onCancel (if
// non-nil) once, and is returned. A canceled parent context also stops the
// pool and surfaces its error.
func Process[T any](
	ctx context.Context,
	workerCount int,
	items []T,
	process func(context.Context, T) error,
	onCancel func(),
) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}
	if len(items) == 0 {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		next     atomic.Int64
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				idx := next.Add(1) - 1
				if idx >= int64(len(items)) {
					return
				}
				if err := process(ctx, items[idx]); err != nil {
					once.Do(func() {
						firstErr = err
						if onCancel != nil {
							onCancel()
						}
					})
					cancel()
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
