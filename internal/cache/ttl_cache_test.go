package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testCache = TTLCache[string, int, *MapStorage[string, int]]

func newTestCache(t *testing.T, cfg Config, opts ...Option[string]) (*testCache, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	opts = append([]Option[string]{WithClock[string](clk)}, opts...)
	c, _ := New[string, int](cfg, NewMapStorage[string, int](), opts...)
	return c, clk
}

func (c *TTLCache[K, V, S]) queuedKeys() []K {
	c.expiresMu.RLock()
	defer c.expiresMu.RUnlock()
	return c.expires.keys()
}

func snapshot(c *testCache) map[string]int {
	out := map[string]int{}
	c.View(func(s *MapStorage[string, int]) {
		for _, k := range s.Keys() {
			v, _ := s.Get(k)
			out[k] = v
		}
	})
	return out
}

func TestInsert_ThenReadShowsValue(t *testing.T) {
	c, _ := newTestCache(t, NewConfig(time.Minute))
	c.Insert("a", 1)
	c.Insert("b", 2)

	g := c.Read()
	v, ok := g.Storage().Get("a")
	g.Release()
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, map[string]int{"a": 1, "b": 2}, snapshot(c))
	require.Equal(t, 2, c.Pending())
	require.Equal(t, int64(2), c.Stats().Inserts)
}

func TestReadGuard_ReleaseIsIdempotentAndUnblocksWriters(t *testing.T) {
	c, _ := newTestCache(t, NewConfig(time.Minute))

	g1 := c.Read()
	g2 := c.Read()
	g1.Release()
	g1.Release()
	g2.Release()

	done := make(chan struct{})
	go func() {
		c.Insert("k", 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("insert blocked after all read guards were released")
	}
}

func TestExpiry_PresentBeforeTTLAbsentAfter(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(50*time.Millisecond))
	c.Insert("a", 1)

	clk.Advance(49 * time.Millisecond)
	require.Empty(t, c.evict())
	require.Equal(t, map[string]int{"a": 1}, snapshot(c))

	clk.Advance(time.Millisecond)
	require.Equal(t, []string{"a"}, c.evict())
	require.Empty(t, snapshot(c))
	require.Zero(t, c.Pending())
}

func TestQueueOrder_EqualsInsertionOrder(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(time.Minute))
	keys := []string{"z", "a", "m", "a", "b"}
	for _, k := range keys {
		c.Insert(k, 0)
		clk.Advance(time.Millisecond)
	}
	require.Equal(t, keys, c.queuedKeys())
}

func TestEvict_NothingDueIsNoop(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(time.Minute))
	require.Empty(t, c.evict())

	c.Insert("a", 1)
	clk.Advance(time.Second)
	require.Empty(t, c.evict())
	require.Empty(t, c.evict())

	require.Equal(t, map[string]int{"a": 1}, snapshot(c))
	require.Equal(t, []string{"a"}, c.queuedKeys())
	require.Equal(t, Snapshot{Inserts: 1, Evictions: 0, Passes: 3}, c.Stats())
}

func TestOverwrite_FirstRecordWins(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(50*time.Millisecond))
	c.Insert("a", 1)
	clk.Advance(30 * time.Millisecond)
	c.Insert("a", 2)
	require.Equal(t, map[string]int{"a": 2}, snapshot(c))
	require.Equal(t, 2, c.Pending())

	// The first record removes the fresh value before its own TTL.
	clk.Advance(20 * time.Millisecond)
	require.Equal(t, []string{"a"}, c.evict())
	require.Empty(t, snapshot(c))

	// The second record removes an absent key without complaint.
	clk.Advance(30 * time.Millisecond)
	require.NotPanics(t, func() { c.evict() })
	require.Empty(t, snapshot(c))
	require.Zero(t, c.Pending())
}

func TestEvict_GroupsRecordsWithinDeltaDelay(t *testing.T) {
	cfg := NewBuilder(50 * time.Millisecond).DeltaDelay(5 * time.Millisecond).Build()
	c, clk := newTestCache(t, cfg)

	c.Insert("a", 1)

	// The task sleeps for a's remaining time plus the delta.
	delay, idle := c.nextDelay()
	require.False(t, idle)
	require.Equal(t, 55*time.Millisecond, delay)

	clk.Advance(2 * time.Millisecond)
	c.Insert("b", 2)
	clk.Advance(10 * time.Millisecond)
	c.Insert("c", 3)

	clk.Advance(delay - 12*time.Millisecond)
	require.Equal(t, []string{"a", "b"}, c.evict())
	require.Equal(t, map[string]int{"c": 3}, snapshot(c))
	require.Equal(t, Snapshot{Inserts: 3, Evictions: 2, Passes: 1}, c.Stats())
}

func TestNextDelay_EmptyQueueUsesEmptyDelay(t *testing.T) {
	cfg := NewBuilder(time.Second).EmptyDelay(250 * time.Millisecond).Build()
	c, clk := newTestCache(t, cfg)

	delay, idle := c.nextDelay()
	require.True(t, idle)
	require.Equal(t, 250*time.Millisecond, delay)

	c.Insert("a", 1)
	clk.Advance(2 * time.Second)
	delay, idle = c.nextDelay()
	require.False(t, idle)
	require.Equal(t, cfg.DeltaDelay, delay, "overdue front only waits the delta")
}

func TestOnEvict_CalledAfterLocksReleased(t *testing.T) {
	var (
		c       *testCache
		evicted []string
	)
	c, clk := newTestCache(t, NewConfig(time.Second), OnEvict(func(k string) {
		// Reading and writing from the hook must not deadlock.
		_ = snapshot(c)
		require.GreaterOrEqual(t, c.Pending(), 0)
		evicted = append(evicted, k)
	}))

	c.Insert("x", 1)
	c.Insert("y", 2)
	clk.Advance(time.Second)
	c.evict()
	require.Equal(t, []string{"x", "y"}, evicted)
}

func TestOnEvict_SkipsStaleRecords(t *testing.T) {
	var evicted []string
	c, clk := newTestCache(t, NewConfig(50*time.Millisecond), OnEvict(func(k string) {
		evicted = append(evicted, k)
	}))

	c.Insert("a", 1)
	clk.Advance(10 * time.Millisecond)
	c.Insert("a", 2)

	clk.Advance(40 * time.Millisecond)
	require.Equal(t, []string{"a"}, c.evict())
	clk.Advance(10 * time.Millisecond)
	require.Equal(t, []string{"a"}, c.evict(), "stale record is still drained")

	require.Equal(t, []string{"a"}, evicted)
	require.Equal(t, int64(2), c.Stats().Evictions)
}

func TestExpiresAt_ReportsOldestRecord(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(time.Minute))
	start := clk.Now()

	_, ok := c.ExpiresAt("a")
	require.False(t, ok)

	c.Insert("a", 1)
	clk.Advance(20 * time.Second)
	c.Insert("a", 2)
	c.Insert("b", 3)

	at, ok := c.ExpiresAt("a")
	require.True(t, ok)
	require.Equal(t, start.Add(time.Minute), at)

	at, ok = c.ExpiresAt("b")
	require.True(t, ok)
	require.Equal(t, start.Add(80*time.Second), at)
}

func TestNew_SchedulesKeysAlreadyStored(t *testing.T) {
	clk := newFakeClock()
	data := NewMapStorage[string, int]()
	data.Insert("old", 1)

	c, _ := New[string, int](NewConfig(time.Second), data, WithClock[string](clk))
	require.Equal(t, []string{"old"}, c.queuedKeys())
	require.Zero(t, c.Stats().Inserts)

	clk.Advance(time.Second)
	require.Equal(t, []string{"old"}, c.evict())
	require.Empty(t, snapshot(c))
}

func TestInsert_ConcurrentWritersAndReaders(t *testing.T) {
	c, clk := newTestCache(t, NewConfig(time.Second))

	const writers = 32
	const perWriter = 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		w := w
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				c.Insert(fmt.Sprintf("w%d-%d", w, i), i)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				c.View(func(s *MapStorage[string, int]) { _ = s.Len() })
			}
		}()
	}
	wg.Wait()

	require.Len(t, snapshot(c), writers*perWriter)
	require.Equal(t, writers*perWriter, c.Pending())

	clk.Advance(time.Second)
	require.Len(t, c.evict(), writers*perWriter)
	require.Empty(t, snapshot(c))
}

func TestNew_WithOrderedStorage(t *testing.T) {
	clk := newFakeClock()
	c, task := New[int, string](NewConfig(time.Second), NewOrderedStorage[int, string](), WithClock[int](clk))
	require.NotNil(t, task)

	for _, k := range []int{5, 1, 3} {
		c.Insert(k, fmt.Sprint(k))
	}
	var keys []int
	c.View(func(s *OrderedStorage[int, string]) { keys = s.Keys() })
	require.Equal(t, []int{1, 3, 5}, keys)

	clk.Advance(time.Second)
	require.Equal(t, []int{5, 1, 3}, c.evict())
}
