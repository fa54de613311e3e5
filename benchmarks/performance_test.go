// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for the recycler package, comparing it against a
// sync.Pool baseline and bare allocation.

package benchmarks

import (
	"sync"
	"testing"

	"github.com/momentics/gorecycler/fake"
	"github.com/momentics/gorecycler/internal/concurrency"
	"github.com/momentics/gorecycler/pool"
	"github.com/momentics/gorecycler/recycler"
)

func newWidgetRecycler() *recycler.Recycler[*fake.Widget] {
	factory := fake.NewWidgetFactory(4096)
	return recycler.NewRecycler(recycler.DefaultConfig(), factory.NewBound)
}

// BenchmarkBareAllocation is the no-pooling control: every Get is a fresh
// allocation.
func BenchmarkBareAllocation(b *testing.B) {
	factory := fake.NewWidgetFactory(4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := factory.New()
		w.Reset()
	}
}

// BenchmarkSyncPool measures the teacher's sync.Pool-wrapping baseline.
func BenchmarkSyncPool(b *testing.B) {
	factory := fake.NewWidgetFactory(4096)
	sp := pool.NewSyncPool(func() *fake.Widget { return factory.New() })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := sp.Get()
		w.Reset()
		sp.Put(w)
	}
}

// BenchmarkRecyclerSameGoroutine measures the hot, lock-free pushNow/pop
// path: a single Local getting and recycling on its own stack.
func BenchmarkRecyclerSameGoroutine(b *testing.B) {
	r := newWidgetRecycler()
	local := r.Bind()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := local.Get()
		w.Reset()
		w.Handle.Recycle(local, w)
	}
}

// BenchmarkRecyclerCrossGoroutine drives the WeakOrderQueue path through
// concurrency.Executor: each of the executor's numWorkers worker goroutines
// is handed exactly one long-running task, submitted before any other work
// so the executor's round-robin local-queue placement hands each of these
// tasks to a different worker (see Executor.Submit). That task binds its own Local
// once and holds it for the task's entire lifetime — a Local must never be
// shared across goroutines — and recycles objects it did not allocate back
// to a single owning Local. Every recycle takes pushLater, and owner's Get
// forces at least one scavenge per reused object. Passing baseCPU 0 to
// NewExecutor pins each worker to its own OS thread, the same as real
// foreign-goroutine traffic would originate from.
func BenchmarkRecyclerCrossGoroutine(b *testing.B) {
	r := newWidgetRecycler()
	owner := r.Bind()

	const numWorkers = 4
	ex := concurrency.NewExecutor(numWorkers, 0)
	defer ex.Close()

	work := make([]chan *fake.Widget, numWorkers)
	var wg sync.WaitGroup
	for i := range work {
		ch := make(chan *fake.Widget, 64)
		work[i] = ch
		wg.Add(1)
		if err := ex.Submit(func() {
			defer wg.Done()
			local := r.Bind()
			for w := range ch {
				w.Reset()
				w.Handle.Recycle(local, w)
			}
		}); err != nil {
			b.Fatalf("submit worker %d: %v", i, err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		work[i%numWorkers] <- owner.Get()
	}
	for _, ch := range work {
		close(ch)
	}
	wg.Wait()
}
