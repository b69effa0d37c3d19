package cache

import "time"

const (
	// DefaultEmptyDelay is how long the expiration task sleeps when nothing is queued.
	DefaultEmptyDelay = 100 * time.Millisecond

	// DefaultDeltaDelay is the grace added after the earliest due time so that
	// keys expiring close together are removed in one pass.
	DefaultDeltaDelay = 5 * time.Millisecond
)

// Config holds the settings shared by every entry of a TTLCache.
//
// Durations are not validated. A zero DeltaDelay gives the most precise eviction
// at the cost of more wake-ups; a zero EmptyDelay makes an idle task busy-poll.
type Config struct {
	// TTL is the fixed lifetime of every entry.
	TTL time.Duration
	// EmptyDelay is the sleep between checks while the expiration queue is empty.
	EmptyDelay time.Duration
	// DeltaDelay is added to each computed sleep to group nearby expirations.
	DeltaDelay time.Duration
}

// NewConfig returns a Config for ttl with the default delays.
func NewConfig(ttl time.Duration) Config {
	return Config{
		TTL:        ttl,
		EmptyDelay: DefaultEmptyDelay,
		DeltaDelay: DefaultDeltaDelay,
	}
}

// Builder assembles a Config, defaulting any delay that is not set.
type Builder struct {
	ttl        time.Duration
	emptyDelay *time.Duration
	deltaDelay *time.Duration
}

// NewBuilder starts a Config for ttl.
func NewBuilder(ttl time.Duration) *Builder {
	return &Builder{ttl: ttl}
}

// EmptyDelay sets Config.EmptyDelay.
func (b *Builder) EmptyDelay(d time.Duration) *Builder {
	b.emptyDelay = &d
	return b
}

// DeltaDelay sets Config.DeltaDelay.
func (b *Builder) DeltaDelay(d time.Duration) *Builder {
	b.deltaDelay = &d
	return b
}

// Build returns the assembled Config.
func (b *Builder) Build() Config {
	cfg := NewConfig(b.ttl)
	if b.emptyDelay != nil {
		cfg.EmptyDelay = *b.emptyDelay
	}
	if b.deltaDelay != nil {
		cfg.DeltaDelay = *b.deltaDelay
	}
	return cfg
}
