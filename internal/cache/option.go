package cache

import "go.uber.org/zap"

var nopLogger = zap.NewNop()

type options[K comparable] struct {
	clock   Clock
	logger  *zap.Logger
	onEvict func(K)
}

func defaultOptions[K comparable]() options[K] {
	return options[K]{
		clock:  realClock{},
		logger: nopLogger,
	}
}

// Option configures a TTLCache.
type Option[K comparable] func(*options[K])

// WithClock sets the clock used to timestamp expiration records.
// Useful for testing expiry without sleeping.
func WithClock[K comparable](clk Clock) Option[K] {
	return func(o *options[K]) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// WithLogger sets the logger used by the expiration task.
func WithLogger[K comparable](l *zap.Logger) Option[K] {
	return func(o *options[K]) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnEvict sets a callback invoked for every key removed by the expiration task.
// It runs after the cache locks are released, so it may read from the cache.
func OnEvict[K comparable](fn func(K)) Option[K] {
	return func(o *options[K]) {
		o.onEvict = fn
	}
}
