package recycler

import (
	"sync/atomic"

	"github.com/momentics/gorecycler/internal/concurrency"
)

// TraceKind labels a TraceEvent. Kept small and numeric so pushing one is a
// single store, not an allocation.
type TraceKind uint8

const (
	TraceGet TraceKind = iota
	TraceRecycleNow
	TraceRecycleLater
	TraceDrop
	TraceScavengeHit
	TraceDeadQueueReaped
)

func (k TraceKind) String() string {
	switch k {
	case TraceGet:
		return "get"
	case TraceRecycleNow:
		return "recycle_now"
	case TraceRecycleLater:
		return "recycle_later"
	case TraceDrop:
		return "drop"
	case TraceScavengeHit:
		return "scavenge_hit"
	case TraceDeadQueueReaped:
		return "dead_queue_reaped"
	default:
		return "unknown"
	}
}

// TraceEvent is one entry in a Tracer's ring. Seq is a process-local
// sequence number, not a wall-clock timestamp — reading the clock on every
// recycle would undo the point of a lock-free hot path.
type TraceEvent struct {
	Kind  TraceKind
	Stack int64
	Seq   uint64
}

// Tracer is a bounded, lock-free, allocation-free log of recycle-path
// events, built on internal/concurrency.RingBuffer[T] the same way the
// teacher uses that ring for in-flight transport buffers. A full ring
// drops new events rather than blocking a producer — this is diagnostics,
// not a channel with backpressure semantics.
type Tracer struct {
	ring *concurrency.RingBuffer[TraceEvent]
	seq  atomic.Uint64
	full atomic.Int64
}

// NewTracer allocates a Tracer with room for capacity events (must be a
// power of two; NewRingBuffer panics otherwise).
func NewTracer(capacity uint64) *Tracer {
	return &Tracer{ring: concurrency.NewRingBuffer[TraceEvent](capacity)}
}

// Push records an event, dropping it silently if the ring is full.
func (t *Tracer) Push(kind TraceKind, stackID int64) {
	if t == nil {
		return
	}
	ev := TraceEvent{Kind: kind, Stack: stackID, Seq: t.seq.Add(1)}
	if !t.ring.Enqueue(ev) {
		t.full.Add(1)
	}
}

// Drain removes and returns every event currently buffered, oldest first.
// Intended for control.DebugProbes to call periodically, not from the hot
// path.
func (t *Tracer) Drain() []TraceEvent {
	if t == nil {
		return nil
	}
	out := make([]TraceEvent, 0, t.ring.Len())
	for {
		ev, ok := t.ring.Dequeue()
		if !ok {
			break
		}
		out = append(out, ev)
	}
	return out
}

// Dropped returns the number of events lost to a full ring since creation.
func (t *Tracer) Dropped() int64 {
	if t == nil {
		return 0
	}
	return t.full.Load()
}
