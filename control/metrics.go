// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/gorecycler/recycler"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// RecordRecyclerSnapshot publishes one recycler.Recycler[T]'s counters
// under the "<name>.*" key prefix, so several named recyclers can share a
// registry.
func (mr *MetricsRegistry) RecordRecyclerSnapshot(name string, snap recycler.Snapshot) {
	mr.Set(fmt.Sprintf("%s.gets", name), snap.Gets)
	mr.Set(fmt.Sprintf("%s.recycles", name), snap.Recycles)
	mr.Set(fmt.Sprintf("%s.drops", name), snap.Drops)
	mr.Set(fmt.Sprintf("%s.scavenge_hits", name), snap.ScavengeHits)
	mr.Set(fmt.Sprintf("%s.scavenge_misses", name), snap.ScavengeMisses)
	mr.Set(fmt.Sprintf("%s.dead_queues_reaped", name), snap.DeadQueuesReaped)
	mr.Set(fmt.Sprintf("%s.race_losses", name), snap.RaceLosses)
}
