// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Deterministic object factories used by recycler's own tests and by
// benchmarks, in place of the transport-era FakeBytePool/fake transport
// stubs this package used to hold.

package fake

import (
	"sync/atomic"

	"github.com/momentics/gorecycler/recycler"
)

// Widget is a pooled value with enough state to make double-recycle and
// reset bugs visible in a test failure rather than silently passing.
// Handle is non-nil only when the Widget came from a recycler.Recycler
// (see WidgetFactory.NewBound); a bare WidgetFactory.New value has no
// handle and cannot be recycled.
type Widget struct {
	ID     int64
	Buffer []byte
	Handle *recycler.Handle[*Widget]
}

// Reset clears a Widget's contents the way a caller would before returning
// it to its pool, without touching ID (identity survives a recycle).
func (w *Widget) Reset() {
	for i := range w.Buffer {
		w.Buffer[i] = 0
	}
}

// RecycleHandle satisfies recycler.Recyclable[*Widget], letting a Widget
// be recycled through recycler.AsObjectPool's Put(T) as well as directly.
func (w *Widget) RecycleHandle() *recycler.Handle[*Widget] {
	return w.Handle
}

// WidgetFactory hands out Widgets with a monotonically increasing ID and
// a fixed-size buffer, counting how many it has ever constructed so a test
// can assert on the allocation rate a recycler achieves.
type WidgetFactory struct {
	nextID     atomic.Int64
	bufferSize int
	built      atomic.Int64
}

// NewWidgetFactory returns a factory whose Widgets carry a bufferSize-byte
// buffer.
func NewWidgetFactory(bufferSize int) *WidgetFactory {
	return &WidgetFactory{bufferSize: bufferSize}
}

// New constructs a fresh, handle-less Widget and records the allocation —
// for use with a sync.Pool or bare-allocation baseline.
func (f *WidgetFactory) New() *Widget {
	f.built.Add(1)
	return &Widget{ID: f.nextID.Add(1), Buffer: make([]byte, f.bufferSize)}
}

// NewBound constructs a Widget carrying h, for use as a recycler.NewObjectFunc.
func (f *WidgetFactory) NewBound(h *recycler.Handle[*Widget]) *Widget {
	w := f.New()
	w.Handle = h
	return w
}

// Built returns the number of Widgets this factory has ever constructed.
func (f *WidgetFactory) Built() int64 {
	return f.built.Load()
}
