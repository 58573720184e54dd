// Package parallel provides bounded fan-out helpers for the trainer. Each
// task is stateless with respect to its siblings; inputs are passed as
// read-only snapshots.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Parallelize splits items across CPU cores and runs fn on each range.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ForEach runs fn for every index in [0, items) using at most workers
// goroutines. It stops dispatching new indices once ctx is cancelled and
// returns ctx.Err() in that case; tasks already started run to completion.
// Cancellation is cooperative: no task is interrupted mid-flight.
func ForEach(ctx context.Context, items, workers int, fn func(i int)) error {
	if items == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

	idx := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < items; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
	return err
}
