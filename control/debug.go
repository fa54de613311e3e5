// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug handler and probe reflector for internal inspection.

package control

import (
	"sync"

	"github.com/eapache/queue"
)

// ConfigEvent is one entry in a DebugProbes' bounded event history —
// config changes, reload fires, anything worth remembering for the last N
// occurrences without logging (logging itself stays out of scope).
type ConfigEvent struct {
	Name string
	Data any
}

// DebugProbes holds registered probe functions plus a bounded history of
// named events. Probes are live reads (called on every DumpState); the
// history is a fixed-size FIFO that drops its oldest entry once full.
type DebugProbes struct {
	mu         sync.RWMutex
	probes     map[string]func() any
	history    *queue.Queue
	historyCap int
}

// NewDebugProbes creates a probe registry with a history capped at
// historyCap events (0 disables history retention).
func NewDebugProbes(historyCap int) *DebugProbes {
	return &DebugProbes{
		probes:     make(map[string]func() any),
		history:    queue.New(),
		historyCap: historyCap,
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// RecordEvent appends ev to the history, evicting the oldest entry first
// if the registry is already at capacity.
func (dp *DebugProbes) RecordEvent(ev ConfigEvent) {
	if dp.historyCap == 0 {
		return
	}
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if dp.history.Length() >= dp.historyCap {
		dp.history.Remove()
	}
	dp.history.Add(ev)
}

// History returns a copy of the recorded events, oldest first.
func (dp *DebugProbes) History() []ConfigEvent {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make([]ConfigEvent, dp.history.Length())
	for i := range out {
		out[i] = dp.history.Get(i).(ConfigEvent)
	}
	return out
}
