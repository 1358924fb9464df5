// Package kernel dispatches per-object and per-bin loops onto either a
// serial or a multi-goroutine execution path.
//
// The placement algorithms never branch on the execution target; they hand
// index loops to a [Kernel] and rely on two guarantees:
//   - each loop body writes disjoint state per index,
//   - Run does not return until every body has finished (a full barrier).
//
// [Serial] is bit-for-bit deterministic and is what tests use. [Parallel]
// fans out across GOMAXPROCS workers in contiguous chunks.
package kernel

import (
	"runtime"
	"sync"
)

// Kernel runs fn(i) for every i in [0, n). Implementations must not return
// before all calls complete.
type Kernel interface {
	Run(n int, fn func(i int))
}

// Serial executes loop bodies on the calling goroutine, in index order.
type Serial struct{}

// Run calls fn(0) .. fn(n-1) sequentially.
func (Serial) Run(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// Parallel executes loop bodies across a fixed set of worker goroutines.
// Indices are split into contiguous chunks, one per worker, so adjacent
// indices land on the same worker and false sharing stays low.
type Parallel struct {
	// Workers caps the number of goroutines. Zero means GOMAXPROCS.
	Workers int
}

// Run fans fn out across workers and blocks until every call returns.
func (p Parallel) Run(n int, fn func(i int)) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		Serial{}.Run(n, fn)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}

// Select returns the kernel matching the execution toggle: Serial when
// forceSerial is set, Parallel otherwise.
func Select(forceSerial bool) Kernel {
	if forceSerial {
		return Serial{}
	}
	return Parallel{}
}
