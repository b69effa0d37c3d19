package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TTLCache is a concurrency-safe cache in which every entry lives for the same
// fixed TTL. It is shared by pointer between callers and its ExpireTask.
//
// Lock order: any path that needs both locks takes expiresMu before dataMu.
// Read only takes dataMu.
type TTLCache[K comparable, V any, S Storage[K, V]] struct {
	expiresMu sync.RWMutex
	expires   expireQueue[K]

	dataMu sync.RWMutex
	data   S

	cfg      Config
	clock    Clock
	logger   *zap.Logger
	onEvict  func(K)
	contains func(K) bool
	stats    Stats
}

// New wraps data in a TTLCache and returns it with its expiration task.
// The task is inert until Run is called; entries are not evicted before that.
//
// data must not be used directly afterwards. Keys already in data are
// scheduled as if inserted by New when data can list them (every Backend
// can); keys in a storage without a Keys method never expire.
func New[K comparable, V any, S Storage[K, V]](cfg Config, data S, opts ...Option[K]) (*TTLCache[K, V, S], *ExpireTask[K, V, S]) {
	o := defaultOptions[K]()
	for _, opt := range opts {
		opt(&o)
	}

	c := &TTLCache[K, V, S]{
		data:    data,
		cfg:     cfg,
		clock:   o.clock,
		logger:  o.logger,
		onEvict: o.onEvict,
	}
	if g, ok := any(data).(interface{ Get(K) (V, bool) }); ok {
		c.contains = func(key K) bool {
			_, found := g.Get(key)
			return found
		}
	}
	if l, ok := any(data).(interface{ Keys() []K }); ok {
		now := c.clock.Now()
		for _, key := range l.Keys() {
			c.expires.push(expireRecord[K]{key: key, createdAt: now, ttl: cfg.TTL})
		}
	}
	return c, newExpireTask(c)
}

// Config returns the cache configuration.
func (c *TTLCache[K, V, S]) Config() Config {
	return c.cfg
}

// Insert stores value under key and schedules key for removal after the TTL.
//
// Inserting an existing key overwrites the value but keeps the earlier
// expiration record, so the key is removed when the first record is due.
func (c *TTLCache[K, V, S]) Insert(key K, value V) {
	c.expiresMu.Lock()
	defer c.expiresMu.Unlock()
	c.dataMu.Lock()
	defer c.dataMu.Unlock()

	c.data.Insert(key, value)
	c.expires.push(expireRecord[K]{
		key:       key,
		createdAt: c.clock.Now(),
		ttl:       c.cfg.TTL,
	})
	c.stats.insert()
}

// Read returns shared access to the underlying storage.
// The caller must Release the guard; writers block until it does.
func (c *TTLCache[K, V, S]) Read() *ReadGuard[S] {
	c.dataMu.RLock()
	return &ReadGuard[S]{data: c.data, unlock: c.dataMu.RUnlock}
}

// View calls fn with shared access to the underlying storage.
func (c *TTLCache[K, V, S]) View(fn func(S)) {
	g := c.Read()
	defer g.Release()
	fn(g.Storage())
}

// Pending returns the number of queued expiration records, stale ones included.
func (c *TTLCache[K, V, S]) Pending() int {
	c.expiresMu.RLock()
	defer c.expiresMu.RUnlock()
	return c.expires.len()
}

// ExpiresAt reports when key will be removed: the due time of the oldest
// queued record for key. It is linear in the number of pending records.
func (c *TTLCache[K, V, S]) ExpiresAt(key K) (time.Time, bool) {
	c.expiresMu.RLock()
	defer c.expiresMu.RUnlock()

	r, ok := c.expires.first(key)
	if !ok {
		return time.Time{}, false
	}
	return r.createdAt.Add(r.ttl), true
}

// Stats returns a snapshot of the cache counters.
func (c *TTLCache[K, V, S]) Stats() Snapshot {
	return c.stats.Snapshot()
}

// nextDelay returns how long the expiration task should sleep before its next pass.
func (c *TTLCache[K, V, S]) nextDelay() (delay time.Duration, idle bool) {
	c.expiresMu.RLock()
	defer c.expiresMu.RUnlock()

	front, ok := c.expires.front()
	if !ok {
		return c.cfg.EmptyDelay, true
	}
	return front.expiresIn(c.clock.Now()) + c.cfg.DeltaDelay, false
}

// evict drains every due record and removes its key from the storage.
// It returns the drained keys; a key whose record was stale is reported too.
// OnEvict hooks only see keys that were present, when the storage can tell.
func (c *TTLCache[K, V, S]) evict() []K {
	drained, removed := c.evictLocked()
	c.stats.pass(len(drained))

	if c.onEvict != nil {
		for _, k := range removed {
			c.onEvict(k)
		}
	}
	return drained
}

func (c *TTLCache[K, V, S]) evictLocked() (drained, removed []K) {
	c.expiresMu.Lock()
	defer c.expiresMu.Unlock()
	c.dataMu.Lock()
	defer c.dataMu.Unlock()

	now := c.clock.Now()
	for {
		r, ok := c.expires.popDue(now)
		if !ok {
			return drained, removed
		}
		if c.contains == nil || c.contains(r.key) {
			removed = append(removed, r.key)
		}
		c.data.Remove(r.key)
		drained = append(drained, r.key)
	}
}

// ReadGuard is scoped shared access to a cache's storage.
type ReadGuard[S any] struct {
	data   S
	unlock func()
	once   sync.Once
}

// Storage returns the guarded storage. It must not be used after Release.
func (g *ReadGuard[S]) Storage() S {
	return g.data
}

// Release gives up the read lock. It is safe to call more than once.
func (g *ReadGuard[S]) Release() {
	g.once.Do(g.unlock)
}
