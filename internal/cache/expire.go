package cache

import "time"

// expireRecord promises that key is removed at or shortly after createdAt+ttl.
type expireRecord[K comparable] struct {
	key       K
	createdAt time.Time
	ttl       time.Duration
}

// expiresIn returns how long until the record is due, or zero if it already is.
func (r expireRecord[K]) expiresIn(now time.Time) time.Duration {
	left := r.ttl - now.Sub(r.createdAt)
	if left < 0 {
		return 0
	}
	return left
}

func (r expireRecord[K]) due(now time.Time) bool {
	return r.expiresIn(now) == 0
}

// expireQueue is a FIFO of expiration records. With a single TTL for the whole
// cache, insertion order is expiration order, so the front is always due first.
type expireQueue[K comparable] struct {
	records []expireRecord[K]
	head    int
}

func (q *expireQueue[K]) push(r expireRecord[K]) {
	q.records = append(q.records, r)
}

func (q *expireQueue[K]) len() int {
	return len(q.records) - q.head
}

func (q *expireQueue[K]) front() (expireRecord[K], bool) {
	if q.len() == 0 {
		return expireRecord[K]{}, false
	}
	return q.records[q.head], true
}

// popDue removes and returns the front record only if it is due at now.
func (q *expireQueue[K]) popDue(now time.Time) (expireRecord[K], bool) {
	r, ok := q.front()
	if !ok || !r.due(now) {
		return expireRecord[K]{}, false
	}

	q.records[q.head] = expireRecord[K]{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head == len(q.records) {
		q.records = q.records[:0]
		q.head = 0
	} else if q.head >= 64 && q.head*2 >= len(q.records) {
		n := copy(q.records, q.records[q.head:])
		clear(q.records[n:])
		q.records = q.records[:n]
		q.head = 0
	}
	return r, true
}

// keys returns the queued keys front to back.
func (q *expireQueue[K]) keys() []K {
	out := make([]K, 0, q.len())
	for _, r := range q.records[q.head:] {
		out = append(out, r.key)
	}
	return out
}

// first returns the oldest queued record for key.
func (q *expireQueue[K]) first(key K) (expireRecord[K], bool) {
	for _, r := range q.records[q.head:] {
		if r.key == key {
			return r, true
		}
	}
	return expireRecord[K]{}, false
}
