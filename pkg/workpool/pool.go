// Package workpool provides bounded-parallelism batch execution for the
// entity sweeps. Entities are independent, so the only coordination is a
// concurrency cap.
package workpool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Config configures the worker pool.
type Config struct {
	MaxConcurrent int // Maximum concurrent builds (default: 8)
}

// Pool manages concurrent execution with bounded parallelism. A semaphore
// limits outstanding work; results are consumed as they complete.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a worker pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 8
	}
	return &Pool{
		config: config,
		logger: logger.Named("workpool"),
	}
}

// Item is a unit of work.
type Item[T any] struct {
	ID      int                                  // Entity identifier, for tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// Result is the outcome of one item.
type Result[T any] struct {
	ID     int
	Result T
	Err    error
}

// Process executes all items with bounded parallelism. Results arrive in
// completion order, not submission order. Processing continues through
// individual failures; a cancelled context fails the remaining items with
// the context error.
func Process[T any](
	ctx context.Context,
	pool *Pool,
	items []Item[T],
	onProgress func(completed, total int),
) []Result[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]Result[T], 0, len(items))
	resultsChan := make(chan Result[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item Item[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- Result[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := item.Execute(ctx)
			resultsChan <- Result[T]{ID: item.ID, Result: result, Err: err}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	completed := 0
	for result := range resultsChan {
		results = append(results, result)
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	return results
}
