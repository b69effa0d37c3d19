package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrTaskRunning is returned by Run when the task is already being run.
var ErrTaskRunning = errors.New("expire task is already running")

// ExpireTask removes expired entries from its TTLCache.
// It does nothing until Run is called.
type ExpireTask[K comparable, V any, S Storage[K, V]] struct {
	cache   *TTLCache[K, V, S]
	running atomic.Bool
}

func newExpireTask[K comparable, V any, S Storage[K, V]](c *TTLCache[K, V, S]) *ExpireTask[K, V, S] {
	return &ExpireTask[K, V, S]{cache: c}
}

// Run evicts expired entries until ctx is done, then returns ctx.Err().
//
// Each iteration sleeps until the oldest record is due plus DeltaDelay, or
// EmptyDelay when nothing is queued, then removes every record due by then.
// No lock is held while sleeping. Cancelling ctx stops eviction only; the
// cache stays usable and Run may be called again.
func (t *ExpireTask[K, V, S]) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrTaskRunning
	}
	defer t.running.Store(false)

	log := t.cache.logger.With(zap.String("component", "cache.expire"))
	log.Debug("expire task started", zap.Duration("ttl", t.cache.cfg.TTL))

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		delay, idle := t.cache.nextDelay()
		timer.Reset(delay)

		select {
		case <-ctx.Done():
			log.Debug("expire task stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}

		evicted := t.cache.evict()
		if len(evicted) > 0 {
			log.Debug("expired entries removed",
				zap.Int("count", len(evicted)),
				zap.Duration("slept", delay),
				zap.Bool("idle", idle),
			)
		}
	}
}
