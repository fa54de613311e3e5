package recycler

import (
	"sync"
	"sync/atomic"
	"weak"

	"golang.org/x/sys/cpu"
)

// stack is a per-goroutine LIFO of recycled handles, plus the list of
// weak-order queues that foreign goroutines have established toward it.
// Only the owning goroutine ever calls pop, pushNow, or scavenge; any
// goroutine may call push (which routes to pushNow or pushLater depending
// on whether the caller is the owner).
type stack[T comparable] struct {
	ownID int64
	owner weak.Pointer[Local[T]]

	maxCapacity          int
	interval             int
	delayedQueueInterval int
	maxDelayedQueues     int
	linkCapacity         int

	// availableSharedCapacity is the budget every WOQ targeting this stack
	// draws Link allocations from. Shared by pointer with every such WOQ's
	// head, never copied.
	availableSharedCapacity atomic.Int64
	_                       cpu.CacheLinePad

	elements []*Handle[T]
	size     int

	handleRecycleCount int

	// head is published with release semantics and read with acquire by
	// the scavenger; headMu serializes the (cold, once-per-foreign-
	// goroutine) writers. This mirrors "synchronized setHead" in the
	// source system exactly (spec §4.2).
	headMu sync.Mutex
	head   atomic.Pointer[weakOrderQueue[T]]

	// cursor/prev are the scavenge walk's position. Touched only by the
	// owning goroutine, so they need no synchronization.
	cursor *weakOrderQueue[T]
	prev   *weakOrderQueue[T]

	metrics *recyclerMetrics
	tracer  *Tracer
}

func newStack[T comparable](owner *Local[T], cfg Config, metrics *recyclerMetrics, tracer *Tracer) *stack[T] {
	s := &stack[T]{
		ownID:                nextID(),
		owner:                weak.Make(owner),
		maxCapacity:          cfg.MaxCapacityPerThread,
		interval:             cfg.Ratio,
		delayedQueueInterval: cfg.DelayedQueueRatio,
		maxDelayedQueues:     cfg.MaxDelayedQueuesPerThread,
		linkCapacity:         cfg.LinkCapacity,
		elements:             make([]*Handle[T], min(initialCapacityCeiling, cfg.MaxCapacityPerThread)),
		metrics:              metrics,
		tracer:               tracer,
	}
	s.availableSharedCapacity.Store(int64(max(cfg.MaxCapacityPerThread/cfg.MaxSharedCapacityFactor, cfg.LinkCapacity)))
	return s
}

// pop removes and returns the most recently pushed handle, scavenging from
// the WOQ chain first if the stack is empty. Returns nil if nothing is
// available anywhere. Owner-goroutine only.
func (s *stack[T]) pop() *Handle[T] {
	if s.size == 0 {
		if !s.scavenge() {
			return nil
		}
		if s.size <= 0 {
			return nil
		}
	}
	s.size--
	h := s.elements[s.size]
	s.elements[s.size] = nil

	if h.lastRecycledID.Load() != h.recycleID {
		panic(errDoubleRecycle("recycled multiple times"))
	}
	h.recycleID = 0
	h.lastRecycledID.Store(0)
	return h
}

// push routes to pushNow if from owns this stack, otherwise to pushLater.
func (s *stack[T]) push(h *Handle[T], from *Local[T]) {
	if from.owns(s) {
		s.pushNow(h)
	} else {
		s.pushLater(h, from)
	}
}

func (s *stack[T]) pushNow(h *Handle[T]) {
	if h.recycleID != 0 || !h.lastRecycledID.CompareAndSwap(0, s.ownID) {
		panic(errDoubleRecycle("recycleID != 0 or CAS on lastRecycledID failed"))
	}
	h.recycleID = s.ownID

	if s.size >= s.maxCapacity || s.dropHandle(h) {
		s.metrics.incDrop()
		s.tracer.Push(TraceDrop, s.ownID)
		return
	}
	if s.size == len(s.elements) {
		s.elements = append(s.elements[:s.size:s.size], make([]*Handle[T], growBy(s.size, s.maxCapacity))...)
	}
	s.elements[s.size] = h
	s.size++
	s.metrics.incRecycle()
	s.tracer.Push(TraceRecycleNow, s.ownID)
}

func growBy(size, maxCapacity int) int {
	newCap := min(size<<1, maxCapacity)
	if newCap <= size {
		newCap = size + 1
	}
	return newCap - size
}

func (s *stack[T]) pushLater(h *Handle[T], from *Local[T]) {
	if s.maxDelayedQueues == 0 {
		s.metrics.incDrop()
		return
	}

	entry, ok := from.delayed[s]
	switch {
	case !ok:
		if len(from.delayed) >= s.maxDelayedQueues {
			from.delayed[s] = delayedEntry[T]{dummy: true}
			s.metrics.incDrop()
			return
		}
		q := newWeakOrderQueue(s, from)
		if q == nil {
			s.metrics.incDrop()
			return
		}
		from.delayed[s] = delayedEntry[T]{queue: q}
		q.add(h, s.metrics)
		s.tracer.Push(TraceRecycleLater, s.ownID)
	case entry.dummy:
		s.metrics.incDrop()
		s.tracer.Push(TraceDrop, s.ownID)
	default:
		entry.queue.add(h, s.metrics)
		s.tracer.Push(TraceRecycleLater, s.ownID)
	}
}

// dropHandle is the ratio admission filter shared by both the home stack
// (here) and each WOQ (woq.go's own copy with its own counters): exactly
// one in every interval never-recycled-before handles is admitted — the
// 1st, (interval+1)-th, (2*interval+1)-th, and so on — so the first N
// recycle calls admit exactly ceil(N/interval) of them. A handle that has
// already been recycled once bypasses the filter entirely.
func (s *stack[T]) dropHandle(h *Handle[T]) bool {
	if h.hasBeenRecycled {
		return false
	}
	if s.handleRecycleCount%s.interval != 0 {
		s.handleRecycleCount++
		return true
	}
	s.handleRecycleCount++
	h.hasBeenRecycled = true
	return false
}

// setHead publishes a newly created WOQ at the front of this stack's WOQ
// list. Serialized against concurrent foreign-goroutine WOQ creation; the
// atomic.Pointer store gives the scavenger a release/acquire-ordered view
// so it never observes a partially-initialized WOQ.
func (s *stack[T]) setHead(q *weakOrderQueue[T]) {
	s.headMu.Lock()
	defer s.headMu.Unlock()
	q.next = s.head.Load()
	s.head.Store(q)
}

// increaseCapacity doubles elements until it covers expected (capped at
// maxCapacity) and returns the resulting capacity.
func (s *stack[T]) increaseCapacity(expected int) int {
	newCap := len(s.elements)
	for newCap < expected && newCap < s.maxCapacity {
		newCap <<= 1
	}
	newCap = min(newCap, s.maxCapacity)
	if newCap != len(s.elements) {
		grown := make([]*Handle[T], newCap)
		copy(grown, s.elements)
		s.elements = grown
	}
	return newCap
}

// scavenge walks the WOQ chain looking for any transfer, resuming from
// where the previous call left off. If it reaches the end of the chain
// without a transfer it returns false and resets the cursor so that the
// next call starts again from the head; queues before the cursor are not
// revisited within the same call. Owner-goroutine only.
func (s *stack[T]) scavenge() bool {
	if s.scavengeSome() {
		return true
	}
	s.prev = nil
	s.cursor = s.head.Load()
	return false
}

func (s *stack[T]) scavengeSome() bool {
	cursor := s.cursor
	prev := s.prev
	if cursor == nil {
		cursor = s.head.Load()
		prev = nil
		if cursor == nil {
			return false
		}
	}

	success := false
	for cursor != nil && !success {
		if cursor.transfer(s) {
			success = true
			break
		}

		next := cursor.next
		if cursor.producer.Value() == nil {
			// Producer goroutine is gone: drain whatever it still has,
			// then unlink — unless this is the head, which we never
			// unlink here to avoid synchronizing with concurrent setHead.
			for cursor.hasFinalData() {
				if cursor.transfer(s) {
					success = true
				} else {
					break
				}
			}
			if prev != nil {
				cursor.reclaimAllSpaceAndUnlink()
				prev.next = next
				s.metrics.incDeadQueueReaped()
				s.tracer.Push(TraceDeadQueueReaped, s.ownID)
			} else {
				// cursor is the head: never unlinked here, but still a
				// valid predecessor for whatever dead, non-head node comes
				// next in the walk.
				prev = cursor
			}
		} else {
			prev = cursor
		}
		cursor = next
	}

	s.prev = prev
	s.cursor = cursor
	if success {
		s.metrics.incScavengeHit()
		s.tracer.Push(TraceScavengeHit, s.ownID)
	} else {
		s.metrics.incScavengeMiss()
	}
	return success
}
