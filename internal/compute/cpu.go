package compute

import (
	"runtime"
	"sync"
)

// DefaultMinChunk is the smallest row range worth a goroutine of its own.
const DefaultMinChunk = 4096

type CPUBackend struct {
	workers  int
	minChunk int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers, minChunk: DefaultMinChunk}
}

// WithMinChunk overrides the chunk floor; values below 1 are ignored.
func (c *CPUBackend) WithMinChunk(n int) *CPUBackend {
	if n >= 1 {
		c.minChunk = n
	}
	return c
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.workers }

// Rows splits [0, n) into at most Workers chunks of at least minChunk rows
// and runs them concurrently. The error of the lowest failing chunk wins, so
// the outcome does not depend on scheduling.
func (c *CPUBackend) Rows(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers := c.workers
	if n/c.minChunk < workers {
		workers = n / c.minChunk
	}
	if workers <= 1 {
		return fn(0, n)
	}

	chunkSize := (n + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(worker, s, e int) {
			defer wg.Done()
			errs[worker] = fn(s, e)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
