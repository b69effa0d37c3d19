package cache

import (
	"cmp"

	"github.com/google/btree"
)

// MapStorage is an unordered, map-backed Storage.
// It does no locking of its own; TTLCache guards it.
type MapStorage[K comparable, V any] struct {
	items map[K]V
}

// NewMapStorage constructs an empty MapStorage.
func NewMapStorage[K comparable, V any]() *MapStorage[K, V] {
	return &MapStorage[K, V]{items: make(map[K]V)}
}

// Insert implements Storage.Insert.
func (s *MapStorage[K, V]) Insert(key K, value V) {
	s.items[key] = value
}

// Remove implements Storage.Remove.
func (s *MapStorage[K, V]) Remove(key K) {
	delete(s.items, key)
}

// Get implements Backend.Get.
func (s *MapStorage[K, V]) Get(key K) (V, bool) {
	v, ok := s.items[key]
	return v, ok
}

// Len implements Backend.Len.
func (s *MapStorage[K, V]) Len() int {
	return len(s.items)
}

// Keys implements Backend.Keys. Order is unspecified.
func (s *MapStorage[K, V]) Keys() []K {
	out := make([]K, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

// btreeDegree is the fan-out of OrderedStorage nodes.
const btreeDegree = 32

type orderedItem[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// OrderedStorage is a Storage that keeps its keys sorted, backed by a B-tree.
type OrderedStorage[K cmp.Ordered, V any] struct {
	tree *btree.BTreeG[orderedItem[K, V]]
}

// NewOrderedStorage constructs an empty OrderedStorage.
func NewOrderedStorage[K cmp.Ordered, V any]() *OrderedStorage[K, V] {
	return &OrderedStorage[K, V]{
		tree: btree.NewG(btreeDegree, func(a, b orderedItem[K, V]) bool {
			return cmp.Less(a.key, b.key)
		}),
	}
}

// Insert implements Storage.Insert.
func (s *OrderedStorage[K, V]) Insert(key K, value V) {
	s.tree.ReplaceOrInsert(orderedItem[K, V]{key: key, value: value})
}

// Remove implements Storage.Remove.
func (s *OrderedStorage[K, V]) Remove(key K) {
	s.tree.Delete(orderedItem[K, V]{key: key})
}

// Get implements Backend.Get.
func (s *OrderedStorage[K, V]) Get(key K) (V, bool) {
	item, ok := s.tree.Get(orderedItem[K, V]{key: key})
	return item.value, ok
}

// Len implements Backend.Len.
func (s *OrderedStorage[K, V]) Len() int {
	return s.tree.Len()
}

// Keys implements Backend.Keys, in ascending order.
func (s *OrderedStorage[K, V]) Keys() []K {
	out := make([]K, 0, s.tree.Len())
	s.Ascend(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Ascend calls fn for every entry in ascending key order until fn returns false.
func (s *OrderedStorage[K, V]) Ascend(fn func(key K, value V) bool) {
	s.tree.Ascend(func(item orderedItem[K, V]) bool {
		return fn(item.key, item.value)
	})
}

// Ensure the reference backends implement Backend at compile time.
var (
	_ Backend[string, any] = (*MapStorage[string, any])(nil)
	_ Backend[string, any] = (*OrderedStorage[string, any])(nil)
)
