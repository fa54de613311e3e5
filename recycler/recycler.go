package recycler

import "github.com/momentics/gorecycler/api"

// NewObjectFunc constructs a fresh T bound to handle. The core never calls
// it except on a pool miss (spec §4.1); implementations typically close
// over handle and store it on the returned value so a later call site can
// reach handle.Recycle without the Recycler having to track it separately —
// the same pattern the source system's pooled objects use to carry their
// own DefaultHandle.
type NewObjectFunc[T comparable] func(h *Handle[T]) T

// Recycler is the public facade: it owns the tuning Config and the factory,
// and mints one Local (thread-token) per goroutine that calls Bind. It
// holds no per-goroutine state itself — that all lives on the Local and the
// Stack it owns (spec §4.1).
type Recycler[T comparable] struct {
	cfg       Config
	disabled  bool
	newObject NewObjectFunc[T]
	metrics   recyclerMetrics
	tracer    *Tracer
	noop      *Handle[T]
}

// NewRecycler builds a Recycler with cfg normalized per spec §6's defaults
// and constraints (a non-positive MaxCapacityPerThread disables pooling
// entirely). Tracing is off by default; call EnableTracing before the
// first Bind to turn it on.
func NewRecycler[T comparable](cfg Config, newObject NewObjectFunc[T]) *Recycler[T] {
	cfg = cfg.normalize()
	return &Recycler[T]{
		cfg:       cfg,
		disabled:  cfg.MaxCapacityPerThread == 0,
		newObject: newObject,
		noop:      &Handle[T]{noop: true},
	}
}

// EnableTracing attaches a bounded diagnostic trace ring of the given
// capacity (must be a power of two). Call it once, before any Bind — a
// Local captures the tracer at construction time, so enabling tracing
// after goroutines have already bound leaves their stacks untraced.
func (r *Recycler[T]) EnableTracing(capacity uint64) {
	r.tracer = NewTracer(capacity)
}

// Tracer returns the trace ring, or nil if EnableTracing was never called.
func (r *Recycler[T]) Tracer() *Tracer {
	return r.tracer
}

// Bind mints a new Local for the calling goroutine. The returned Local must
// not be used concurrently from more than one goroutine — see Local's doc
// comment.
func (r *Recycler[T]) Bind() *Local[T] {
	return newLocal(r)
}

// Recycle is the deprecated facade path kept from the source system's
// Recycler#recycle(T, Handle): it validates that h belongs to this
// Recycler before delegating to h.Recycle, returning false instead of
// panicking when it doesn't (spec §7 CrossRecyclerRecycle). Prefer calling
// h.Recycle directly.
func (r *Recycler[T]) Recycle(from *Local[T], obj T, h *Handle[T]) bool {
	if h == r.noop {
		return false
	}
	if h.homeStack != nil && h.homeStack.metrics != &r.metrics {
		return false
	}
	h.Recycle(from, obj)
	return true
}

// Snapshot returns a point-in-time copy of this Recycler's lock-free
// counters, suitable for publishing into a control.MetricsRegistry.
func (r *Recycler[T]) Snapshot() Snapshot {
	return r.metrics.snapshot()
}

// Config returns the normalized tuning this Recycler was built with.
func (r *Recycler[T]) Config() Config {
	return r.cfg
}

// Recyclable is implemented by values whose own Handle is reachable from
// the value itself, the pattern NewObjectFunc's doc comment describes.
// AsObjectPool requires it because api.ObjectPool[T]'s Put(T) has no room
// to pass the Handle that Recycle needs.
type Recyclable[T comparable] interface {
	RecycleHandle() *Handle[T]
}

// asObjectPool adapts a bound Local to the teacher's api.ObjectPool[T]
// contract, so a Recycler-backed pool is substitutable wherever that
// interface is expected.
type asObjectPool[T comparable] struct {
	local *Local[T]
}

// AsObjectPool wraps local so it satisfies api.ObjectPool[T]. T must
// implement Recyclable[T]; Put panics (via Handle.Recycle) on double-
// recycle or a mismatched object, matching this package's direct API.
func AsObjectPool[T interface {
	comparable
	Recyclable[T]
}](local *Local[T]) api.ObjectPool[T] {
	return asObjectPool[T]{local: local}
}

func (p asObjectPool[T]) Get() T {
	return p.local.Get()
}

func (p asObjectPool[T]) Put(obj T) {
	any(obj).(Recyclable[T]).RecycleHandle().Recycle(p.local, obj)
}
