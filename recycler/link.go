package recycler

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// link is one fixed-capacity chunk of a weak-order queue's buffer. The
// producer goroutine only ever appends (writing elements then advancing
// writeIndex with a release store); the consumer goroutine only ever reads
// from readIndex forward and advances readIndex itself. That split is what
// lets add/transfer run without a mutex.
type link[T comparable] struct {
	// writeIndex is published with a release store so the consumer's
	// acquire load is guaranteed to see the element write that preceded it.
	writeIndex atomic.Uint32
	_          cpu.CacheLinePad

	// readIndex is touched only by the consumer goroutine (the stack's home
	// goroutine), so it needs no atomicity at all.
	readIndex uint32

	elements []*Handle[T]
	next     *link[T]
}

func newLink[T comparable](capacity int) *link[T] {
	return &link[T]{elements: make([]*Handle[T], capacity)}
}

// head owns the current Link of a weak-order queue's chain plus the budget
// shared across every WOQ targeting one stack. It must not hold a strong
// reference to either the WOQ or the target stack — availableSharedCapacity
// is the only thing tying it back to the stack, by design (spec §3, §9):
// that's what lets the stack and WOQ be collected independently of this
// chain once nothing else references them.
type head[T comparable] struct {
	link                    *link[T]
	availableSharedCapacity *atomic.Int64
	linkCapacity            int
}

// reserveSpaceForLink attempts to debit one Link's worth of capacity from
// the shared budget via a CAS loop. Returns false if the budget is
// exhausted — the caller must then drop the handle that triggered the
// allocation attempt.
func reserveSpaceForLink(shared *atomic.Int64, linkCapacity int) bool {
	need := int64(linkCapacity)
	for {
		available := shared.Load()
		if available < need {
			return false
		}
		if shared.CompareAndSwap(available, available-need) {
			return true
		}
	}
}

// newLink reserves shared capacity for, and allocates, a new Link. Returns
// nil if the shared budget can't cover it.
func (h *head[T]) newLink() *link[T] {
	if !reserveSpaceForLink(h.availableSharedCapacity, h.linkCapacity) {
		return nil
	}
	return newLink[T](h.linkCapacity)
}

// relink replaces the head Link, crediting back the capacity of the Link
// being retired. Only ever called by the consumer goroutine during
// transfer, never concurrently with itself.
func (h *head[T]) relink(next *link[T]) {
	h.availableSharedCapacity.Add(int64(h.linkCapacity))
	h.link = next
}

// reclaimAllSpaceAndUnlink walks the whole chain, nulling next pointers to
// help the garbage collector (breaks the chain so a dead Link can't keep
// its successors reachable through it — the same "GC nepotism" concern the
// original system calls out) and returning all of it to the shared budget
// in one add.
func (h *head[T]) reclaimAllSpaceAndUnlink() {
	cur := h.link
	h.link = nil
	var reclaimed int64
	for cur != nil {
		reclaimed += int64(h.linkCapacity)
		next := cur.next
		cur.next = nil
		cur = next
	}
	if reclaimed > 0 {
		h.availableSharedCapacity.Add(reclaimed)
	}
}
