package recycler

import "weak"

// weakOrderQueue is a single-producer (one foreign goroutine) / single-
// consumer (the target stack's home goroutine) queue of handles in flight
// back to their home stack. It makes only moderate visibility guarantees:
// items are observed in the order the producer wrote them, but nothing
// guarantees the consumer ever observes any given item at all — that's an
// accepted tradeoff for keeping the hot path lock-free (spec §1 Non-goals,
// §5 Ordering guarantees).
type weakOrderQueue[T comparable] struct {
	// producer is a weak reference to the foreign goroutine's thread-token.
	// A cleared weak pointer (Value() == nil) is this package's equivalent
	// of "the producer thread has died": nothing else holds that Local
	// reachable, so the queue can eventually be drained and unlinked.
	producer weak.Pointer[Local[T]]

	id int64

	head *head[T]
	tail *link[T]

	// next links this WOQ into its target stack's WOQ list. Only the home
	// goroutine (via scavenge) and stack.setHead (under headMu) ever touch
	// this field once the queue is published.
	next *weakOrderQueue[T]

	interval           int
	handleRecycleCount int
}

// newWeakOrderQueue allocates a WOQ targeting dst, reserving its first Link
// out of dst's shared capacity budget. Returns nil if that budget is
// already exhausted — the caller drops the handle that triggered creation.
func newWeakOrderQueue[T comparable](dst *stack[T], producer *Local[T]) *weakOrderQueue[T] {
	if !reserveSpaceForLink(&dst.availableSharedCapacity, dst.linkCapacity) {
		return nil
	}
	firstLink := newLink[T](dst.linkCapacity)
	q := &weakOrderQueue[T]{
		producer: weak.Make(producer),
		id:       nextID(),
		head: &head[T]{
			link:                    firstLink,
			availableSharedCapacity: &dst.availableSharedCapacity,
			linkCapacity:            dst.linkCapacity,
		},
		tail:     firstLink,
		interval: dst.delayedQueueInterval,
	}
	dst.setHead(q)
	return q
}

// add appends handle to this queue. Producer-goroutine only.
func (q *weakOrderQueue[T]) add(h *Handle[T], metrics *recyclerMetrics) {
	if !h.lastRecycledID.CompareAndSwap(0, q.id) {
		// A racing recycler elsewhere already claimed this handle.
		metrics.incRaceLoss()
		return
	}

	if !h.hasBeenRecycled {
		if q.handleRecycleCount%q.interval != 0 {
			q.handleRecycleCount++
			metrics.incDrop()
			return
		}
		q.handleRecycleCount++
		h.hasBeenRecycled = true
	}

	tail := q.tail
	writeIndex := int(tail.writeIndex.Load())
	if writeIndex == len(tail.elements) {
		next := q.head.newLink()
		if next == nil {
			metrics.incDrop()
			return
		}
		tail.next = next
		tail = next
		q.tail = next
		writeIndex = 0
	}

	tail.elements[writeIndex] = h
	// Clearing homeStack must happen-before the release store of writeIndex
	// below, so the consumer never observes an in-flight handle still
	// claiming to live on its home stack.
	h.homeStack = nil
	tail.writeIndex.Store(uint32(writeIndex + 1))
}

// hasFinalData reports whether the tail Link still has unread data — used
// only to decide whether a dead producer's queue needs draining before it
// can be unlinked.
func (q *weakOrderQueue[T]) hasFinalData() bool {
	return q.tail.readIndex != uint32(q.tail.writeIndex.Load())
}

// transfer moves as many handles as it can from this queue into dst,
// returning true if at least one was actually added. Consumer-goroutine
// (dst's home goroutine) only.
func (q *weakOrderQueue[T]) transfer(dst *stack[T]) bool {
	cur := q.head.link
	if cur == nil {
		return false
	}

	if cur.readIndex == uint32(len(cur.elements)) {
		if cur.next == nil {
			return false
		}
		cur = cur.next
		q.head.relink(cur)
	}

	srcStart := cur.readIndex
	srcEnd := uint32(cur.writeIndex.Load())
	if srcStart == srcEnd {
		return false
	}

	srcSize := int(srcEnd - srcStart)
	dstSize := dst.size
	expectedCapacity := dstSize + srcSize
	if expectedCapacity > len(dst.elements) {
		actual := dst.increaseCapacity(expectedCapacity)
		if limit := srcStart + uint32(actual-dstSize); limit < srcEnd {
			srcEnd = limit
		}
	}

	if srcStart == srcEnd {
		// Destination is already full.
		return false
	}

	newDstSize := dstSize
	for i := srcStart; i < srcEnd; i++ {
		elem := cur.elements[i]
		if elem.recycleID == 0 {
			elem.recycleID = elem.lastRecycledID.Load()
		} else if elem.recycleID != elem.lastRecycledID.Load() {
			panic(errDoubleRecycle("recycleID != lastRecycledID during WOQ transfer"))
		}
		cur.elements[i] = nil

		if dst.dropHandle(elem) {
			continue
		}
		elem.homeStack = dst
		dst.elements[newDstSize] = elem
		newDstSize++
	}

	if srcEnd == uint32(len(cur.elements)) && cur.next != nil {
		q.head.relink(cur.next)
	}

	cur.readIndex = srcEnd
	if dst.size == newDstSize {
		return false
	}
	dst.size = newDstSize
	return true
}

// reclaimAllSpaceAndUnlink returns this queue's Link chain capacity to the
// target stack's shared budget. Called only once the producer is confirmed
// dead and fully drained.
func (q *weakOrderQueue[T]) reclaimAllSpaceAndUnlink() {
	q.head.reclaimAllSpaceAndUnlink()
	q.next = nil
}
