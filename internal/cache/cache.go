package cache

// Storage is the capability a TTLCache needs from its backing container.
// Any associative container can satisfy it.
type Storage[K comparable, V any] interface {
	// Insert stores the value, overwriting any previous value for key.
	Insert(key K, value V)

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(key K)
}

// Backend is a Storage that can also be read back by callers holding a ReadGuard.
type Backend[K comparable, V any] interface {
	Storage[K, V]

	// Get returns the value and whether it was present.
	Get(key K) (V, bool)

	// Len returns the number of stored entries.
	Len() int

	// Keys returns a snapshot of the stored keys.
	Keys() []K
}
