// Package cache implements an in-memory key/value cache in which every entry
// expires after the same fixed time-to-live.
//
// # Overview
//
// New returns a *TTLCache and an *ExpireTask bound to it. The task must be run
// by the owner of the cache, typically in its own goroutine, for expired keys
// to be removed:
//
//	c, task := cache.New[string, int](cache.NewConfig(time.Minute), cache.NewMapStorage[string, int]())
//	go func() { _ = task.Run(ctx) }()
//
//	c.Insert("key", 42)
//
//	g := c.Read()
//	v, ok := g.Storage().Get("key")
//	g.Release()
//
// # Key eviction
//
// Because the TTL is the same for every entry, the order in which keys are
// inserted is the order in which they expire. Expiration records are kept in a
// FIFO queue and the task only ever looks at its front:
//
//   - If a record is queued, sleep until it is due plus DeltaDelay (5ms by
//     default), then remove every record that is due. Keys inserted within
//     DeltaDelay of each other are removed in a single pass.
//   - If nothing is queued, sleep EmptyDelay (100ms by default).
//
// Inserting a key that is already present overwrites its value but does not
// reschedule it: the key is removed when its first record is due. Later
// records for the same key remove nothing.
//
// # Storage
//
// Any type implementing Storage can hold the entries. MapStorage (unordered)
// and OrderedStorage (sorted keys) are provided.
//
// # Thread Safety
//
// The queue and the storage are guarded by two sync.RWMutex. Paths that need
// both always lock the queue first.
package cache
