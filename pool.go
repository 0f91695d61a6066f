package main

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// the number of concurrent file or network operations when not otherwise specified.
const DEFAULT_POOL_WIDTH = 10

// a Pool bounds how many operations run at once.
// one Pool is shared by every call site it is passed to,
// so two concurrent `pooled_map` calls on the same Pool share its width.
type Pool struct {
	Width int
	sem   *semaphore.Weighted
}

func NewPool(width int) *Pool {
	if width < 1 {
		width = 1
	}
	return &Pool{
		Width: width,
		sem:   semaphore.NewWeighted(int64(width)),
	}
}

// calls `fn` on each item in `item_list` with no more than `pool.Width` calls in flight.
// results are returned in the same order as `item_list`, regardless of completion order.
// if `ctx` is cancelled no further calls are started, the calls in flight are waited on
// and the context error is returned alongside the partial results.
func pooled_map[T, R any](ctx context.Context, pool *Pool, item_list []T, fn func(T) R) ([]R, error) {
	result_list := make([]R, len(item_list))

	var wg sync.WaitGroup
	var err error
	for i, item := range item_list {
		err = ctx.Err()
		if err == nil {
			err = pool.sem.Acquire(ctx, 1)
		}
		if err != nil {
			err = fmt.Errorf("stopped after %d of %d items: %w", i, len(item_list), err)
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pool.sem.Release(1)
			result_list[i] = fn(item)
		}()
	}
	wg.Wait()

	return result_list, err
}
