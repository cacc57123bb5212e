// Package compute runs independent work items across all CPUs. The
// sampling paths use it to evaluate closed-loop draws in parallel; each
// item must own its random source.
package compute

import (
	"runtime"
	"sync"
)

// Parallel runs fn for every index in [0, n) across runtime.NumCPU()
// workers and waits for completion. Small batches run serially.
func Parallel(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 || n < 4 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}

	wg.Wait()
}
