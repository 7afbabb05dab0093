// Package batcher coalesces items into size- or time-bounded batches and
// hands them to a flush function, optionally throttled to a flush rate.
package batcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Batcher collects items from Add and flushes them in batches. A batch is
// emitted as soon as it reaches the configured size, or when the interval
// ticker fires with anything pending. Close-out flushes whatever remains.
type Batcher[T any] struct {
	flush    func(context.Context, []T) error
	queue    chan T
	size     int
	interval time.Duration
	limiter  ratelimit.Limiter
	log      *zap.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Batcher. A non-positive rps disables flush throttling.
func New[T any](log *zap.Logger, flush func(context.Context, []T) error, size int, interval time.Duration, rps int) *Batcher[T] {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &Batcher[T]{
		flush:    flush,
		queue:    make(chan T, size*2),
		size:     size,
		interval: interval,
		limiter:  limiter,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.loop(ctx)
	}()
}

// Stop terminates the flush loop after draining pending items.
func (b *Batcher[T]) Stop() {
	close(b.done)
	b.wg.Wait()
}

// Add enqueues one item. It fails once the batcher is stopped or the
// caller's context ends while the queue is full.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	select {
	case <-b.done:
		return context.Canceled
	default:
	}

	select {
	case b.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Batcher[T]) loop(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	pending := make([]T, 0, b.size)

	for {
		select {
		case item := <-b.queue:
			pending = append(pending, item)
			if len(pending) >= b.size {
				pending = b.emit(ctx, pending)
			}

		case <-ticker.C:
			pending = b.emit(ctx, pending)

		case <-b.done:
			b.emit(ctx, b.drain(pending))
			return

		case <-ctx.Done():
			b.emit(ctx, b.drain(pending))
			return
		}
	}
}

// drain pulls anything still queued into the pending batch so shutdown
// does not lose items already accepted by Add.
func (b *Batcher[T]) drain(pending []T) []T {
	for {
		select {
		case item := <-b.queue:
			pending = append(pending, item)
		default:
			return pending
		}
	}
}

// emit flushes the batch and returns the reusable empty slice. Flush
// failures are logged and dropped; the loop keeps running.
func (b *Batcher[T]) emit(ctx context.Context, pending []T) []T {
	if len(pending) == 0 {
		return pending
	}

	b.limiter.Take()
	if err := b.flush(ctx, pending); err != nil {
		b.log.Error("batch not flushed", zap.Error(err), zap.Int("size", len(pending)))
	} else {
		b.log.Debug("batch flushed", zap.Int("size", len(pending)))
	}
	return pending[:0]
}
