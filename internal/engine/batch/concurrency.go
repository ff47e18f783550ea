// internal/engine/batch/concurrency.go
package batch

import (
	"runtime"
)

// MaxConcurrency caps the worker pool regardless of what was requested
const MaxConcurrency = 50

// OptimalConcurrency suggests a pool size for I/O bound page fetches
func OptimalConcurrency() int {
	numCPU := runtime.NumCPU()

	// Fetching is I/O bound, so oversubscribe the CPUs
	optimal := numCPU * 3

	if optimal < numCPU {
		optimal = numCPU
	}
	if optimal > MaxConcurrency {
		optimal = MaxConcurrency
	}
	return optimal
}

// EffectiveConcurrency resolves the pool size for a run of pages. A value
// <= 0 auto-tunes. The pool never exceeds the page count or MaxConcurrency.
func EffectiveConcurrency(requested, pages int) int {
	n := requested
	if n <= 0 {
		n = OptimalConcurrency()
	}
	if n > MaxConcurrency {
		n = MaxConcurrency
	}
	if pages > 0 && n > pages {
		n = pages
	}
	if n < 1 {
		n = 1
	}
	return n
}
