package recycler

import (
	"runtime"
	"testing"
)

func testConfig(maxCapacity, sharedFactor, linkCapacity, ratio, delayedRatio int) Config {
	return Config{
		MaxCapacityPerThread:      maxCapacity,
		MaxSharedCapacityFactor:   sharedFactor,
		LinkCapacity:              linkCapacity,
		Ratio:                     ratio,
		DelayedQueueRatio:         delayedRatio,
		MaxDelayedQueuesPerThread: 4,
	}.normalize()
}

// The ratio admission filter must admit exactly ceil(N/interval) of the
// first N never-recycled-before handles pushed onto a stack, for any N and
// any interval.
func TestRatioFilterExactAdmissionCount(t *testing.T) {
	cases := []struct{ interval, n int }{
		{1, 1}, {1, 5}, {1, 20},
		{3, 1}, {3, 2}, {3, 3}, {3, 4}, {3, 9}, {3, 10},
		{8, 1}, {8, 7}, {8, 8}, {8, 9}, {8, 16}, {8, 17},
	}

	for _, tc := range cases {
		owner := &Local[int]{}
		cfg := testConfig(1_000_000, 2, 16, tc.interval, tc.interval)
		metrics := &recyclerMetrics{}
		s := newStack[int](owner, cfg, metrics, nil)

		for i := 0; i < tc.n; i++ {
			s.pushNow(&Handle[int]{})
		}

		want := (tc.n + tc.interval - 1) / tc.interval
		if s.size != want {
			t.Fatalf("interval=%d n=%d: expected %d admitted, got %d", tc.interval, tc.n, want, s.size)
		}
	}
}

// Once a handle has survived the ratio filter once, every later recycle of
// that same handle must be admitted regardless of the counter.
func TestRatioFilterBypassedAfterFirstAdmission(t *testing.T) {
	owner := &Local[int]{}
	cfg := testConfig(1_000_000, 2, 16, 8, 8)
	metrics := &recyclerMetrics{}
	s := newStack[int](owner, cfg, metrics, nil)

	h := &Handle[int]{}
	s.pushNow(h) // admitted: count starts at 0.
	if s.size != 1 {
		t.Fatalf("expected first push admitted, size=%d", s.size)
	}

	h.recycleID = 0
	h.lastRecycledID.Store(0)
	s.pushNow(h)
	if s.size != 2 {
		t.Fatalf("expected already-recycled handle to bypass the filter, size=%d", s.size)
	}
}

// A WOQ's Link chain draws from its target stack's shared capacity budget;
// when that budget is exhausted, creating another WOQ fails until a
// scavenge relinks and credits capacity back.
func TestSharedCapacityClampAndRelink(t *testing.T) {
	owner := &Local[int]{}
	// Budget = max(64/2, 16) = 32 = exactly 2 Links of 16.
	cfg := testConfig(64, 2, 16, 1, 1)
	metrics := &recyclerMetrics{}
	dst := newStack[int](owner, cfg, metrics, nil)

	if got := dst.availableSharedCapacity.Load(); got != 32 {
		t.Fatalf("expected initial shared capacity 32, got %d", got)
	}

	producer1 := &Local[int]{}
	q1 := newWeakOrderQueue[int](dst, producer1)
	if q1 == nil {
		t.Fatal("expected first WOQ creation to succeed")
	}
	if got := dst.availableSharedCapacity.Load(); got != 16 {
		t.Fatalf("expected 16 remaining after first Link reservation, got %d", got)
	}

	// Fill the first Link (16 slots) and push one more to force a second
	// Link reservation, exhausting the budget.
	for i := 0; i < 17; i++ {
		q1.add(&Handle[int]{}, metrics)
	}
	if got := dst.availableSharedCapacity.Load(); got != 0 {
		t.Fatalf("expected shared capacity exhausted after second Link, got %d", got)
	}

	producer2 := &Local[int]{}
	if q2 := newWeakOrderQueue[int](dst, producer2); q2 != nil {
		t.Fatal("expected second WOQ creation to fail with no budget left")
	}

	if !dst.scavenge() {
		t.Fatal("expected scavenge to transfer the first Link's handles")
	}
	if got := dst.availableSharedCapacity.Load(); got != 16 {
		t.Fatalf("expected 16 credited back after relink, got %d", got)
	}
	if dst.size != 16 {
		t.Fatalf("expected 16 handles transferred onto dst, got %d", dst.size)
	}

	q2 := newWeakOrderQueue[int](dst, producer2)
	if q2 == nil {
		t.Fatal("expected second WOQ creation to succeed once capacity was credited back")
	}
}

func newDeadProducerQueue(dst *stack[int]) *weakOrderQueue[int] {
	producer := &Local[int]{}
	q := newWeakOrderQueue[int](dst, producer)
	q.add(&Handle[int]{}, &recyclerMetrics{})
	return q
}

// Once a WOQ's producer goroutine is gone (its weak.Pointer clears), the
// owner's scavenge must drain whatever final data it holds, then unlink it
// from the chain and credit its Link capacity back — unless it is the
// chain head, which is left in place.
func TestDeadProducerDrainAndUnlink(t *testing.T) {
	owner := &Local[int]{}
	cfg := testConfig(64, 2, 16, 1, 1)
	metrics := &recyclerMetrics{}
	dst := newStack[int](owner, cfg, metrics, nil)

	deadQ := newDeadProducerQueue(dst)

	aliveProducer := &Local[int]{}
	aliveQ := newWeakOrderQueue[int](dst, aliveProducer)
	if deadQ == nil || aliveQ == nil {
		t.Fatal("expected both WOQs to be created")
	}

	budgetBeforeGC := dst.availableSharedCapacity.Load()

	if !dst.scavenge() {
		t.Fatal("expected first scavenge to drain the dead producer's pending handle")
	}

	runtime.GC()
	runtime.GC()

	if dst.scavenge() {
		t.Fatal("expected second scavenge to find nothing left to transfer")
	}

	if got := metrics.deadQueuesReaped.Load(); got != 1 {
		t.Fatalf("expected exactly one dead queue reaped, got %d", got)
	}
	if aliveQ.next != nil {
		t.Fatal("expected the dead WOQ unlinked from the alive WOQ's next pointer")
	}
	if got, want := dst.availableSharedCapacity.Load(), budgetBeforeGC+int64(cfg.LinkCapacity); got != want {
		t.Fatalf("expected reclaimed capacity credited back: got %d want %d", got, want)
	}
	if dst.head.Load() != aliveQ {
		t.Fatal("expected the alive WOQ to remain the chain head")
	}
}
