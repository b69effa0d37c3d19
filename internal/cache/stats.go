package cache

import "sync/atomic"

// Stats holds cache counters using atomics so they can be read without the cache locks.
type Stats struct {
	inserts   atomic.Int64
	evictions atomic.Int64
	passes    atomic.Int64
}

func (s *Stats) insert() {
	s.inserts.Add(1)
}

func (s *Stats) pass(evicted int) {
	s.passes.Add(1)
	s.evictions.Add(int64(evicted))
}

// Snapshot is a point-in-time copy of cache statistics.
type Snapshot struct {
	// Inserts counts Insert calls, overwrites included.
	Inserts int64 `json:"inserts"`
	// Evictions counts expiration records drained, stale ones included.
	Evictions int64 `json:"evictions"`
	// Passes counts wake-ups of the expiration task that took the write locks.
	Passes int64 `json:"passes"`
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Inserts:   s.inserts.Load(),
		Evictions: s.evictions.Load(),
		Passes:    s.passes.Load(),
	}
}
