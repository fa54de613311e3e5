package recycler

import "sync/atomic"

// recyclerMetrics are lock-free hot-path counters. They're intentionally
// plain atomics rather than a map-based registry (control.MetricsRegistry
// uses a mutex, which is fine for the cold config/debug path but would
// defeat the point of a lock-free recycle path). Recycler.Snapshot copies
// these into a Snapshot struct, which control.MetricsRegistry's
// RecordRecyclerSnapshot publishes for the ambient observability layer
// (SPEC_FULL.md §5.3).
type recyclerMetrics struct {
	gets             atomic.Int64
	recycles         atomic.Int64
	drops            atomic.Int64
	scavengeHits     atomic.Int64
	scavengeMisses   atomic.Int64
	deadQueuesReaped atomic.Int64
	raceLoss         atomic.Int64
}

func (m *recyclerMetrics) incGet()              { m.gets.Add(1) }
func (m *recyclerMetrics) incRecycle()          { m.recycles.Add(1) }
func (m *recyclerMetrics) incDrop()             { m.drops.Add(1) }
func (m *recyclerMetrics) incScavengeHit()      { m.scavengeHits.Add(1) }
func (m *recyclerMetrics) incScavengeMiss()     { m.scavengeMisses.Add(1) }
func (m *recyclerMetrics) incDeadQueueReaped()  { m.deadQueuesReaped.Add(1) }
func (m *recyclerMetrics) incRaceLoss()         { m.raceLoss.Add(1) }

// Snapshot is a point-in-time copy of a Recycler[T]'s counters, shaped to
// drop straight into a control.MetricsRegistry via Set per key.
type Snapshot struct {
	Gets             int64
	Recycles         int64
	Drops            int64
	ScavengeHits     int64
	ScavengeMisses   int64
	DeadQueuesReaped int64
	RaceLosses       int64
}

func (m *recyclerMetrics) snapshot() Snapshot {
	return Snapshot{
		Gets:             m.gets.Load(),
		Recycles:         m.recycles.Load(),
		Drops:            m.drops.Load(),
		ScavengeHits:     m.scavengeHits.Load(),
		ScavengeMisses:   m.scavengeMisses.Load(),
		DeadQueuesReaped: m.deadQueuesReaped.Load(),
		RaceLosses:       m.raceLoss.Load(),
	}
}
