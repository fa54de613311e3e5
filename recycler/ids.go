// Package recycler implements a thread-local object recycler: a per-goroutine
// LIFO stack of reusable handles, fed by weak-order queues that carry handles
// back from foreign goroutines without taking a lock on the hot path.
//
// "Thread" throughout this package means *Local[T] — see local.go.
package recycler

import (
	"math"
	"sync/atomic"
)

// idCounter is a single process-wide monotonic counter shared by every
// Recycler[T] instantiation, mirroring the original system's one static
// AtomicInteger ID_GENERATOR. It hands out a non-zero identifier for each
// Local (a "thread") and each weakOrderQueue. Zero is reserved to mean
// "unclaimed" on handle.lastRecycledID, so the counter starts away from
// zero and is never allowed to emit it.
var idCounter atomic.Int64

func init() {
	idCounter.Store(math.MinInt64)
}

// nextID returns the next process-wide unique, non-zero identifier.
func nextID() int64 {
	for {
		id := idCounter.Add(1)
		if id != 0 {
			return id
		}
	}
}
